// Package h225 implements the Go shapes and PER encoders/decoders for the
// subset of ITU-T H.225.0 (RAS and call-signaling) used by this stack:
// RasMessage, TransportAddress, AliasAddress, EndpointType and the
// identifier/token types RAS messages carry.
package h225

import (
	"encoding/asn1"
)

// TransportAddressKind selects the active alternative of a TransportAddress
// CHOICE (H.225.0 clause 8.4 / Annex).
type TransportAddressKind int

const (
	TransportAddressIP TransportAddressKind = iota
	TransportAddressIPSourceRoute
	TransportAddressIPXAddress
	TransportAddressIP6
	TransportAddressNetBios
	TransportAddressNSAP
	TransportAddressNonStandard
	TransportAddressUnknown // extension placeholder
)

const transportAddressRootCount = 7

// IPAddress is the root "ip" alternative: a 4-octet address and a port.
type IPAddress struct {
	IP   [4]byte
	Port uint16
}

// IP6Address is the root "ip6Address" alternative: a 16-octet address and a port.
type IP6Address struct {
	IP   [16]byte
	Port uint16
}

// TransportAddress is a CHOICE; exactly one field matching Kind is
// meaningful. Alternatives this stack does not model in full
// (ipSourceRoute's inner route list, ipxAddress, netBios, nsap,
// nonStandardAddress) are carried as their raw encoded bytes in Opaque so a
// message still round-trips byte-for-byte through an unfamiliar network.
type TransportAddress struct {
	Kind          TransportAddressKind
	FromExtension bool
	IP            *IPAddress
	IP6           *IP6Address
	Opaque        []byte
}

func (e *Encoder) EncodeTransportAddress(a *TransportAddress) error {
	if err := e.enc.EncodeChoiceIndex(int(a.Kind), transportAddressRootCount, true, a.FromExtension); err != nil {
		return err
	}
	switch a.Kind {
	case TransportAddressIP:
		if err := e.encodeIPAddress(a.IP); err != nil {
			return err
		}
	case TransportAddressIP6:
		if err := e.encodeIP6Address(a.IP6); err != nil {
			return err
		}
	default:
		if err := e.enc.EncodeOpenType(a.Opaque); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) DecodeTransportAddress() (*TransportAddress, error) {
	d.dec.Sink().StartElement("TransportAddress", -1)
	defer d.dec.Sink().EndElement("TransportAddress", -1)

	index, fromExt, err := d.dec.DecodeChoiceIndex(transportAddressRootCount, true)
	if err != nil {
		return nil, err
	}
	addr := &TransportAddress{Kind: TransportAddressKind(index), FromExtension: fromExt}
	if fromExt {
		addr.Kind = TransportAddressUnknown
		addr.Opaque, err = d.dec.DecodeOpenType()
		return addr, err
	}
	switch addr.Kind {
	case TransportAddressIP:
		addr.IP, err = d.decodeIPAddress()
	case TransportAddressIP6:
		addr.IP6, err = d.decodeIP6Address()
	default:
		addr.Opaque, err = d.dec.DecodeOpenType()
	}
	if err != nil {
		return nil, err
	}
	return addr, nil
}

func (e *Encoder) encodeIPAddress(ip *IPAddress) error {
	four := uint64(4)
	if err := e.enc.EncodeOctetString(ip.IP[:], &four, &four, false); err != nil {
		return err
	}
	lb, ub := int64(0), int64(65535)
	return e.enc.EncodeInteger(int64(ip.Port), &lb, &ub, false)
}

func (d *Decoder) decodeIPAddress() (*IPAddress, error) {
	four := uint64(4)
	raw, err := d.dec.DecodeOctetString(&four, &four, false)
	if err != nil {
		return nil, err
	}
	lb, ub := int64(0), int64(65535)
	port, err := d.dec.DecodeInteger(&lb, &ub, false)
	if err != nil {
		return nil, err
	}
	addr := &IPAddress{Port: uint16(port)}
	copy(addr.IP[:], raw)
	return addr, nil
}

func (e *Encoder) encodeIP6Address(ip *IP6Address) error {
	sixteen := uint64(16)
	if err := e.enc.EncodeOctetString(ip.IP[:], &sixteen, &sixteen, false); err != nil {
		return err
	}
	lb, ub := int64(0), int64(65535)
	return e.enc.EncodeInteger(int64(ip.Port), &lb, &ub, false)
}

func (d *Decoder) decodeIP6Address() (*IP6Address, error) {
	sixteen := uint64(16)
	raw, err := d.dec.DecodeOctetString(&sixteen, &sixteen, false)
	if err != nil {
		return nil, err
	}
	lb, ub := int64(0), int64(65535)
	port, err := d.dec.DecodeInteger(&lb, &ub, false)
	if err != nil {
		return nil, err
	}
	addr := &IP6Address{Port: uint16(port)}
	copy(addr.IP[:], raw)
	return addr, nil
}

// AliasAddressKind selects the active alternative of an AliasAddress CHOICE
// (H.225.0 clause 8.5).
type AliasAddressKind int

const (
	AliasDialedDigits AliasAddressKind = iota
	AliasH323ID
	AliasURLID
	AliasEmailID
	AliasPartyNumber
	AliasMobileUIM // extension placeholder
)

const aliasAddressRootCount = 5

// AliasAddress is a CHOICE of identifier forms. DialedDigits/URLID/EmailID
// are IA5String-shaped (restricted character strings encoded as octet
// strings per clause 30); H323ID is a BMPString. PartyNumber's full
// numbering-plan CHOICE is out of scope and carried as Opaque.
type AliasAddress struct {
	Kind          AliasAddressKind
	FromExtension bool
	Text          string
	Opaque        []byte
}

func (e *Encoder) EncodeAliasAddress(a *AliasAddress) error {
	if err := e.enc.EncodeChoiceIndex(int(a.Kind), aliasAddressRootCount, true, a.FromExtension); err != nil {
		return err
	}
	switch a.Kind {
	case AliasH323ID:
		return e.enc.EncodeBMPString(a.Text, nil, nil, false)
	case AliasDialedDigits, AliasURLID, AliasEmailID:
		return e.enc.EncodeString(a.Text, nil, nil, false)
	default:
		return e.enc.EncodeOpenType(a.Opaque)
	}
}

func (d *Decoder) DecodeAliasAddress() (*AliasAddress, error) {
	d.dec.Sink().StartElement("AliasAddress", -1)
	defer d.dec.Sink().EndElement("AliasAddress", -1)

	index, fromExt, err := d.dec.DecodeChoiceIndex(aliasAddressRootCount, true)
	if err != nil {
		return nil, err
	}
	a := &AliasAddress{Kind: AliasAddressKind(index), FromExtension: fromExt}
	if fromExt {
		a.Kind = AliasMobileUIM
		a.Opaque, err = d.dec.DecodeOpenType()
		return a, err
	}
	switch a.Kind {
	case AliasH323ID:
		a.Text, err = d.dec.DecodeBMPString(nil, nil, false)
	case AliasDialedDigits, AliasURLID, AliasEmailID:
		a.Text, err = d.dec.DecodeString(nil, nil, false)
	default:
		a.Opaque, err = d.dec.DecodeOpenType()
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// EndpointType summarizes an endpoint's capabilities for RRQ/ARQ messages.
// The full type has a dozen optional component groups (vendor, gatekeeper,
// terminal, gateway, mcu...); this stack models the gateway/terminal/MC
// flags and a gatekeeper address, and carries the rest as Extension data.
type EndpointType struct {
	IsGateway         bool
	IsTerminal        bool
	IsMC              bool
	GatekeeperAddress *TransportAddress
	Extension         []byte

	// UnknownExtensions holds extension additions retained from a newer
	// schema version, present only when decoded with
	// per.Options.PreserveUnknownExtensions.
	UnknownExtensions [][]byte
}

func (e *Encoder) EncodeEndpointType(t *EndpointType) error {
	hasExtension := len(t.Extension) > 0 || len(t.UnknownExtensions) > 0
	present := []bool{t.GatekeeperAddress != nil}
	if err := e.enc.EncodeSequencePreamble(true, hasExtension, present); err != nil {
		return err
	}
	if err := e.enc.EncodeBoolean(t.IsGateway); err != nil {
		return err
	}
	if err := e.enc.EncodeBoolean(t.IsTerminal); err != nil {
		return err
	}
	if err := e.enc.EncodeBoolean(t.IsMC); err != nil {
		return err
	}
	if t.GatekeeperAddress != nil {
		if err := e.EncodeTransportAddress(t.GatekeeperAddress); err != nil {
			return err
		}
	}
	if hasExtension {
		bodies := [][]byte{nil}
		if len(t.Extension) > 0 {
			bodies[0] = t.Extension
		}
		if err := e.enc.EncodeExtensionAdditions(bodies, t.UnknownExtensions); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) DecodeEndpointType() (*EndpointType, error) {
	d.dec.Sink().StartElement("EndpointType", -1)
	defer d.dec.Sink().EndElement("EndpointType", -1)

	hasExt, present, err := d.dec.DecodeSequencePreamble(true, 1)
	if err != nil {
		return nil, err
	}
	t := &EndpointType{}
	if t.IsGateway, err = d.dec.DecodeBoolean(); err != nil {
		return nil, err
	}
	if t.IsTerminal, err = d.dec.DecodeBoolean(); err != nil {
		return nil, err
	}
	if t.IsMC, err = d.dec.DecodeBoolean(); err != nil {
		return nil, err
	}
	if present[0] {
		if t.GatekeeperAddress, err = d.DecodeTransportAddress(); err != nil {
			return nil, err
		}
	}
	if hasExt {
		known := []func([]byte) error{
			func(body []byte) error { t.Extension = body; return nil },
		}
		if t.UnknownExtensions, err = d.dec.DecodeExtensionAdditions(known); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// GatekeeperIdentifier and EndpointIdentifier are both BMPString-valued
// H.225.0 names; kept as distinct types so callers can't swap them by
// accident even though the wire shape is identical.
type GatekeeperIdentifier string
type EndpointIdentifier string

// CallIdentifier wraps the 16-octet GUID H.225.0 uses to correlate RAS and
// call-signaling messages for a single call (clause 7.1, scenario S6). It
// is itself an extensible SEQUENCE with a single mandatory guid component,
// so its wire encoding is the extension marker bit plus the 16 aligned
// octets, not the bare octet string.
type CallIdentifier struct {
	GUID [16]byte
}

func (e *Encoder) EncodeCallIdentifier(c *CallIdentifier) error {
	if err := e.enc.EncodeSequencePreamble(true, false, nil); err != nil {
		return err
	}
	sixteen := uint64(16)
	return e.enc.EncodeOctetString(c.GUID[:], &sixteen, &sixteen, false)
}

func (d *Decoder) DecodeCallIdentifier() (*CallIdentifier, error) {
	d.dec.Sink().StartElement("CallIdentifier", -1)
	defer d.dec.Sink().EndElement("CallIdentifier", -1)

	if _, _, err := d.dec.DecodeSequencePreamble(true, 0); err != nil {
		return nil, err
	}
	sixteen := uint64(16)
	raw, err := d.dec.DecodeOctetString(&sixteen, &sixteen, false)
	if err != nil {
		return nil, err
	}
	c := &CallIdentifier{}
	copy(c.GUID[:], raw)
	return c, nil
}

// ProtocolIdentifier names the H.225.0 protocol version in force, e.g.
// {0 0 8 2250 0 <version>}.
type ProtocolIdentifier asn1.ObjectIdentifier

func (e *Encoder) EncodeProtocolIdentifier(p ProtocolIdentifier) error {
	return e.enc.EncodeObjectIdentifier(asn1.ObjectIdentifier(p))
}

func (d *Decoder) DecodeProtocolIdentifier() (ProtocolIdentifier, error) {
	oid, err := d.dec.DecodeObjectIdentifier()
	if err != nil {
		return nil, err
	}
	return ProtocolIdentifier(oid), nil
}

// CryptoH323TokenKind selects the active alternative of the CryptoH323Token
// CHOICE (H.225.0 clause 8.9, also reused by H.235 security).
type CryptoH323TokenKind int

const (
	CryptoEPPwdHash CryptoH323TokenKind = iota
	CryptoGKPwdHash
	CryptoEPCert
	CryptoEPPwdEncr // extension
)

const cryptoH323TokenRootCount = 3

// CryptoH323Token carries password-hash or certificate material as opaque
// bytes; this stack does not implement H.235 cryptography itself (non-goal)
// but does implement the CHOICE framing around it, including the extension
// alternative, so an endpoint's security tokens round-trip unchanged.
type CryptoH323Token struct {
	Kind          CryptoH323TokenKind
	FromExtension bool
	Opaque        []byte
}

func (e *Encoder) EncodeCryptoH323Token(c *CryptoH323Token) error {
	if err := e.enc.EncodeChoiceIndex(int(c.Kind), cryptoH323TokenRootCount, true, c.FromExtension); err != nil {
		return err
	}
	return e.enc.EncodeOpenType(c.Opaque)
}

func (d *Decoder) DecodeCryptoH323Token() (*CryptoH323Token, error) {
	d.dec.Sink().StartElement("CryptoH323Token", -1)
	defer d.dec.Sink().EndElement("CryptoH323Token", -1)

	index, fromExt, err := d.dec.DecodeChoiceIndex(cryptoH323TokenRootCount, true)
	if err != nil {
		return nil, err
	}
	c := &CryptoH323Token{Kind: CryptoH323TokenKind(index), FromExtension: fromExt}
	if fromExt {
		c.Kind = CryptoEPPwdEncr
	}
	if c.Opaque, err = d.dec.DecodeOpenType(); err != nil {
		return nil, err
	}
	return c, nil
}

// EncodeAliasAddressSequence encodes a SEQUENCE OF AliasAddress
// (_SeqOfH225AliasAddress), exercising the fragmented SEQUENCE OF loop for
// element counts above 16384 (scenario S3).
func (e *Encoder) EncodeAliasAddressSequence(addrs []AliasAddress) error {
	remaining := addrs
	for {
		segment, more, err := e.enc.EncodeSequenceOfHeader(uint64(len(remaining)), nil, nil)
		if err != nil {
			return err
		}
		for i := uint64(0); i < segment; i++ {
			if err := e.EncodeAliasAddress(&remaining[i]); err != nil {
				return err
			}
		}
		remaining = remaining[segment:]
		if !more {
			break
		}
	}
	return nil
}

func (d *Decoder) DecodeAliasAddressSequence() ([]AliasAddress, error) {
	var out []AliasAddress
	for {
		n, more, err := d.dec.DecodeSequenceOfHeader(nil, nil)
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n; i++ {
			a, err := d.DecodeAliasAddress()
			if err != nil {
				return nil, err
			}
			out = append(out, *a)
		}
		if !more {
			break
		}
	}
	return out, nil
}
