package h225

// H323MessageKind selects the active alternative of H323_UU_PDU's
// h323-message-body CHOICE (H.225.0 clause 7.3).
type H323MessageKind int

const (
	UUSetup H323MessageKind = iota
	UUCallProceeding
	UUConnect
	UUAlerting
	UUReleaseComplete
	UUFacility // extension
)

const uuMessageRootCount = 5

// H323_UU_PDU carries the call-signaling message body plus the H.245
// control channel and fast-start OLC proposals that ride alongside it.
// Only Setup is modeled as a full SEQUENCE (Setup_UUIE); the other root
// alternatives and the facility extension are structurally-correct
// placeholders carried in Opaque.
type H323_UU_PDU struct {
	Kind          H323MessageKind
	FromExtension bool
	Setup         *Setup_UUIE
	Opaque        []byte

	H245Control [][]byte
	FastStart   [][]byte
}

func (e *Encoder) EncodeH323_UU_PDU(p *H323_UU_PDU) error {
	if err := e.enc.EncodeChoiceIndex(int(p.Kind), uuMessageRootCount, true, p.FromExtension); err != nil {
		return err
	}
	if p.Kind == UUSetup && !p.FromExtension {
		if err := e.EncodeSetupUUIE(p.Setup); err != nil {
			return err
		}
	} else {
		if err := e.enc.EncodeOpenType(p.Opaque); err != nil {
			return err
		}
	}

	present := []bool{len(p.H245Control) > 0, len(p.FastStart) > 0}
	if err := e.enc.EncodeSequencePreamble(false, false, present); err != nil {
		return err
	}
	if len(p.H245Control) > 0 {
		if err := e.encodeOctetStringSequence(p.H245Control); err != nil {
			return err
		}
	}
	if len(p.FastStart) > 0 {
		if err := e.encodeOctetStringSequence(p.FastStart); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) DecodeH323_UU_PDU() (*H323_UU_PDU, error) {
	d.dec.Sink().StartElement("H323-UU-PDU", -1)
	defer d.dec.Sink().EndElement("H323-UU-PDU", -1)

	index, fromExt, err := d.dec.DecodeChoiceIndex(uuMessageRootCount, true)
	if err != nil {
		return nil, err
	}
	p := &H323_UU_PDU{Kind: H323MessageKind(index), FromExtension: fromExt}
	if fromExt {
		p.Kind = UUFacility
	}
	if p.Kind == UUSetup && !fromExt {
		if p.Setup, err = d.DecodeSetupUUIE(); err != nil {
			return nil, err
		}
	} else {
		if p.Opaque, err = d.dec.DecodeOpenType(); err != nil {
			return nil, err
		}
	}

	_, present, err := d.dec.DecodeSequencePreamble(false, 2)
	if err != nil {
		return nil, err
	}
	if present[0] {
		if p.H245Control, err = d.decodeOctetStringSequence(); err != nil {
			return nil, err
		}
	}
	if present[1] {
		if p.FastStart, err = d.decodeOctetStringSequence(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (e *Encoder) encodeOctetStringSequence(items [][]byte) error {
	remaining := items
	for {
		segment, more, err := e.enc.EncodeSequenceOfHeader(uint64(len(remaining)), nil, nil)
		if err != nil {
			return err
		}
		for i := uint64(0); i < segment; i++ {
			if err := e.enc.EncodeOctetString(remaining[i], nil, nil, false); err != nil {
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

func (d *Decoder) decodeOctetStringSequence() ([][]byte, error) {
	var out [][]byte
	for {
		n, more, err := d.dec.DecodeSequenceOfHeader(nil, nil)
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n; i++ {
			b, err := d.dec.DecodeOctetString(nil, nil, false)
			if err != nil {
				return nil, err
			}
			out = append(out, b)
		}
		if !more {
			break
		}
	}
	return out, nil
}

// ScnConnectionType is the ENUMERATED naming the kind of switched-circuit
// connection a gateway call rides over (H.225.0, ConnectionParameters).
type ScnConnectionType int

const (
	ScnUnknown ScnConnectionType = iota
	ScnBChannel
	ScnHybrid2x64
	ScnHybrid384
	ScnHybrid1536
	ScnHybrid1920
	ScnMultirate
)

const scnConnectionTypeCount = 7

// ScnConnectionAggregation is the ENUMERATED naming how multiple SCN
// connections are aggregated into one call.
type ScnConnectionAggregation int

const (
	ScnAggregationAuto ScnConnectionAggregation = iota
	ScnAggregationNone
	ScnAggregationH221
	ScnAggregationBondedMode1
	ScnAggregationBondedMode2
	ScnAggregationBondedMode3
)

const scnConnectionAggregationCount = 6

// ConnectionParameters describes the switched-circuit side of a gateway
// call (H.225.0, a Setup-UUIE extension addition). Both ENUMERATED fields
// are extensible: a value from a newer schema version surfaces as-is, or
// fails InvalidEnumerationValue under per.Options.StrictEnum.
type ConnectionParameters struct {
	ConnectionType         ScnConnectionType
	NumberOfScnConnections uint16
	ConnectionAggregation  ScnConnectionAggregation
}

func (e *Encoder) EncodeConnectionParameters(p *ConnectionParameters) error {
	if err := e.enc.EncodeSequencePreamble(true, false, nil); err != nil {
		return err
	}
	if err := e.enc.EncodeEnumerated(uint64(p.ConnectionType), scnConnectionTypeCount, true); err != nil {
		return err
	}
	lb, ub := int64(0), int64(65535)
	if err := e.enc.EncodeInteger(int64(p.NumberOfScnConnections), &lb, &ub, false); err != nil {
		return err
	}
	return e.enc.EncodeEnumerated(uint64(p.ConnectionAggregation), scnConnectionAggregationCount, true)
}

func (d *Decoder) DecodeConnectionParameters() (*ConnectionParameters, error) {
	d.dec.Sink().StartElement("ConnectionParameters", -1)
	defer d.dec.Sink().EndElement("ConnectionParameters", -1)

	if _, _, err := d.dec.DecodeSequencePreamble(true, 0); err != nil {
		return nil, err
	}
	p := &ConnectionParameters{}
	ct, _, err := d.dec.DecodeEnumerated(scnConnectionTypeCount, true)
	if err != nil {
		return nil, err
	}
	p.ConnectionType = ScnConnectionType(ct)
	lb, ub := int64(0), int64(65535)
	n, err := d.dec.DecodeInteger(&lb, &ub, false)
	if err != nil {
		return nil, err
	}
	p.NumberOfScnConnections = uint16(n)
	ca, _, err := d.dec.DecodeEnumerated(scnConnectionAggregationCount, true)
	if err != nil {
		return nil, err
	}
	p.ConnectionAggregation = ScnConnectionAggregation(ca)
	return p, nil
}

// Setup_UUIE is the one call-signaling SEQUENCE this stack models in full
// (H.225.0 clause 7.3, Setup message). FastStart and ConnectionParameters
// are its known extension additions, in that order; additions beyond them
// land in UnknownExtensions when the decoder is configured to preserve
// them.
type Setup_UUIE struct {
	ProtocolIdentifier    ProtocolIdentifier
	SourceAddress         []AliasAddress
	DestinationAddress    []AliasAddress
	DestCallSignalAddress *TransportAddress
	SourceInfo            *EndpointType
	ActiveMC              bool
	CallIdentifier        *CallIdentifier

	FastStart            [][]byte              // extension addition 0
	ConnectionParameters *ConnectionParameters // extension addition 1
	UnknownExtensions    [][]byte
}

const setupOptionalCount = 3 // SourceAddress, DestinationAddress, DestCallSignalAddress

func (e *Encoder) EncodeSetupUUIE(s *Setup_UUIE) error {
	hasExtension := len(s.FastStart) > 0 || s.ConnectionParameters != nil || len(s.UnknownExtensions) > 0
	present := []bool{
		len(s.SourceAddress) > 0,
		len(s.DestinationAddress) > 0,
		s.DestCallSignalAddress != nil,
	}
	if err := e.enc.EncodeSequencePreamble(true, hasExtension, present); err != nil {
		return err
	}
	if err := e.EncodeProtocolIdentifier(s.ProtocolIdentifier); err != nil {
		return err
	}
	if len(s.SourceAddress) > 0 {
		if err := e.EncodeAliasAddressSequence(s.SourceAddress); err != nil {
			return err
		}
	}
	if len(s.DestinationAddress) > 0 {
		if err := e.EncodeAliasAddressSequence(s.DestinationAddress); err != nil {
			return err
		}
	}
	if s.DestCallSignalAddress != nil {
		if err := e.EncodeTransportAddress(s.DestCallSignalAddress); err != nil {
			return err
		}
	}
	if err := e.EncodeEndpointType(s.SourceInfo); err != nil {
		return err
	}
	if err := e.enc.EncodeBoolean(s.ActiveMC); err != nil {
		return err
	}
	if err := e.EncodeCallIdentifier(s.CallIdentifier); err != nil {
		return err
	}
	if hasExtension {
		bodies := [][]byte{nil, nil}
		if len(s.FastStart) > 0 {
			body, err := e.encodeFastStartAsOpenType(s.FastStart)
			if err != nil {
				return err
			}
			bodies[0] = body
		}
		if s.ConnectionParameters != nil {
			inner := &Encoder{enc: cloneEncoderOptions(e.enc)}
			if err := inner.EncodeConnectionParameters(s.ConnectionParameters); err != nil {
				return err
			}
			bodies[1] = inner.Bytes()
		}
		if err := e.enc.EncodeExtensionAdditions(bodies, s.UnknownExtensions); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) DecodeSetupUUIE() (*Setup_UUIE, error) {
	d.dec.Sink().StartElement("Setup-UUIE", -1)
	defer d.dec.Sink().EndElement("Setup-UUIE", -1)

	hasExt, present, err := d.dec.DecodeSequencePreamble(true, setupOptionalCount)
	if err != nil {
		return nil, err
	}
	s := &Setup_UUIE{}
	if s.ProtocolIdentifier, err = d.DecodeProtocolIdentifier(); err != nil {
		return nil, err
	}
	if present[0] {
		if s.SourceAddress, err = d.DecodeAliasAddressSequence(); err != nil {
			return nil, err
		}
	}
	if present[1] {
		if s.DestinationAddress, err = d.DecodeAliasAddressSequence(); err != nil {
			return nil, err
		}
	}
	if present[2] {
		if s.DestCallSignalAddress, err = d.DecodeTransportAddress(); err != nil {
			return nil, err
		}
	}
	if s.SourceInfo, err = d.DecodeEndpointType(); err != nil {
		return nil, err
	}
	if s.ActiveMC, err = d.dec.DecodeBoolean(); err != nil {
		return nil, err
	}
	if s.CallIdentifier, err = d.DecodeCallIdentifier(); err != nil {
		return nil, err
	}
	if hasExt {
		known := []func([]byte) error{
			func(body []byte) error {
				var err error
				s.FastStart, err = d.decodeFastStartFromOpenType(body)
				return err
			},
			func(body []byte) error {
				inner := &Decoder{dec: cloneDecoderOptions(d.dec, body)}
				var err error
				s.ConnectionParameters, err = inner.DecodeConnectionParameters()
				return err
			},
		}
		if s.UnknownExtensions, err = d.dec.DecodeExtensionAdditions(known); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (e *Encoder) encodeFastStartAsOpenType(items [][]byte) ([]byte, error) {
	inner := &Encoder{enc: cloneEncoderOptions(e.enc)}
	if err := inner.encodeOctetStringSequence(items); err != nil {
		return nil, err
	}
	return inner.Bytes(), nil
}

func (d *Decoder) decodeFastStartFromOpenType(data []byte) ([][]byte, error) {
	inner := &Decoder{dec: cloneDecoderOptions(d.dec, data)}
	return inner.decodeOctetStringSequence()
}

// H323UserInformation is the outer call-signaling wrapper around
// H323_UU_PDU, carried as user-user information in Q.931 SETUP/CONNECT/etc.
// (outside this stack's scope; only the H.225.0-native envelope is modeled).
type H323UserInformation struct {
	PDU             *H323_UU_PDU
	NonStandardData []byte
}

func (e *Encoder) EncodeH323UserInformation(u *H323UserInformation) error {
	present := []bool{len(u.NonStandardData) > 0}
	if err := e.enc.EncodeSequencePreamble(false, false, present); err != nil {
		return err
	}
	if err := e.EncodeH323_UU_PDU(u.PDU); err != nil {
		return err
	}
	if len(u.NonStandardData) > 0 {
		return e.enc.EncodeOctetString(u.NonStandardData, nil, nil, false)
	}
	return nil
}

func (d *Decoder) DecodeH323UserInformation() (*H323UserInformation, error) {
	d.dec.Sink().StartElement("H323-UserInformation", -1)
	defer d.dec.Sink().EndElement("H323-UserInformation", -1)

	_, present, err := d.dec.DecodeSequencePreamble(false, 1)
	if err != nil {
		return nil, err
	}
	u := &H323UserInformation{}
	if u.PDU, err = d.DecodeH323_UU_PDU(); err != nil {
		return nil, err
	}
	if present[0] {
		if u.NonStandardData, err = d.dec.DecodeOctetString(nil, nil, false); err != nil {
			return nil, err
		}
	}
	return u, nil
}
