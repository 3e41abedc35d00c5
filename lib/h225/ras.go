package h225

// RasMessageKind selects the active alternative of the RasMessage CHOICE
// (H.225.0 clause 7). The root list is 21 alternatives; three more are
// extension additions, plus a reserved index for an unrecognized future
// alternative this decoder preserves rather than rejects.
type RasMessageKind int

const (
	GatekeeperRequest RasMessageKind = iota
	GatekeeperConfirm
	GatekeeperReject
	RegistrationRequest
	RegistrationConfirm
	RegistrationReject
	UnregistrationRequest
	UnregistrationConfirm
	UnregistrationReject
	AdmissionRequest
	AdmissionReject
	BandwidthRequest
	BandwidthConfirm
	BandwidthReject
	DisengageRequest
	DisengageConfirm
	DisengageReject
	LocationRequest
	LocationConfirm
	LocationReject
	InfoRequestResponse

	// Extension additions (H.225.0 clause 7.1, post-v1 revisions).
	AdmissionConfirmSequence
	ServiceControlIndication
	ServiceControlResponse
	UnknownRasMessage // reserved: an alternative newer than this schema
)

const rasMessageRootCount = 21
const rasMessageExtensionCount = 3

var rasExtensionIndex = map[RasMessageKind]int{
	AdmissionConfirmSequence: 0,
	ServiceControlIndication: 1,
	ServiceControlResponse:   2,
}

var rasExtensionKindByIndex = []RasMessageKind{
	AdmissionConfirmSequence,
	ServiceControlIndication,
	ServiceControlResponse,
}

// RasMessage models every RAS alternative with one shared, representative
// body (a sequence number, the endpoint/gatekeeper identifiers and
// addresses a RAS exchange typically carries, and an optional Generic
// extension). Real H.225.0 gives each alternative its own distinct SEQUENCE;
// collapsing them to a shared shape keeps this implementation tractable
// while still exercising CHOICE root/extension dispatch, the optional
// component bitmap, BMPString, GUIDs, and recursive GenericData through
// every alternative.
type RasMessage struct {
	Kind          RasMessageKind
	FromExtension bool

	RequestSeqNum      uint32
	ProtocolIdentifier ProtocolIdentifier

	GatekeeperIdentifier *GatekeeperIdentifier
	EndpointIdentifier   *EndpointIdentifier
	CallIdentifier       *CallIdentifier
	Aliases              []AliasAddress
	RasAddress           *TransportAddress
	CryptoTokens         []CryptoH323Token
	Generic              *GenericData

	// Reserved carries the raw body bytes of an alternative this decoder
	// does not recognize (index >= rasMessageRootCount+rasMessageExtensionCount).
	Reserved []byte

	// UnknownExtensions holds extension additions of the shared body
	// retained from a newer schema version, present only when decoded with
	// per.Options.PreserveUnknownExtensions.
	UnknownExtensions [][]byte
}

// rasOptionalCount is the number of optional root components in the shared
// RasMessage body: GatekeeperIdentifier, EndpointIdentifier, CallIdentifier,
// Aliases, RasAddress, CryptoTokens.
const rasOptionalCount = 6

func (e *Encoder) EncodeRasMessage(m *RasMessage) error {
	index := int(m.Kind)
	fromExt := m.FromExtension
	if fromExt {
		index = rasExtensionIndex[m.Kind]
	}
	if err := e.enc.EncodeChoiceIndex(index, rasMessageRootCount, true, fromExt); err != nil {
		return err
	}

	if m.Kind == UnknownRasMessage {
		return e.enc.EncodeOpenType(m.Reserved)
	}

	hasExtension := m.Generic != nil || len(m.UnknownExtensions) > 0
	present := []bool{
		m.GatekeeperIdentifier != nil,
		m.EndpointIdentifier != nil,
		m.CallIdentifier != nil,
		len(m.Aliases) > 0,
		m.RasAddress != nil,
		len(m.CryptoTokens) > 0,
	}
	if err := e.enc.EncodeSequencePreamble(true, hasExtension, present); err != nil {
		return err
	}

	lb, ub := int64(0), int64(65535)
	if err := e.enc.EncodeInteger(int64(m.RequestSeqNum), &lb, &ub, false); err != nil {
		return err
	}
	if err := e.EncodeProtocolIdentifier(m.ProtocolIdentifier); err != nil {
		return err
	}
	if m.GatekeeperIdentifier != nil {
		if err := e.enc.EncodeBMPString(string(*m.GatekeeperIdentifier), nil, nil, false); err != nil {
			return err
		}
	}
	if m.EndpointIdentifier != nil {
		if err := e.enc.EncodeBMPString(string(*m.EndpointIdentifier), nil, nil, false); err != nil {
			return err
		}
	}
	if m.CallIdentifier != nil {
		if err := e.EncodeCallIdentifier(m.CallIdentifier); err != nil {
			return err
		}
	}
	if len(m.Aliases) > 0 {
		if err := e.EncodeAliasAddressSequence(m.Aliases); err != nil {
			return err
		}
	}
	if m.RasAddress != nil {
		if err := e.EncodeTransportAddress(m.RasAddress); err != nil {
			return err
		}
	}
	if len(m.CryptoTokens) > 0 {
		if err := e.encodeCryptoTokenSequence(m.CryptoTokens); err != nil {
			return err
		}
	}
	if hasExtension {
		bodies := [][]byte{nil}
		if m.Generic != nil {
			body, err := e.encodeGenericDataAsOpenType(m.Generic)
			if err != nil {
				return err
			}
			bodies[0] = body
		}
		if err := e.enc.EncodeExtensionAdditions(bodies, m.UnknownExtensions); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) DecodeRasMessage() (*RasMessage, error) {
	d.dec.Sink().StartElement("RasMessage", -1)
	defer d.dec.Sink().EndElement("RasMessage", -1)

	index, fromExt, err := d.dec.DecodeChoiceIndex(rasMessageRootCount, true)
	if err != nil {
		return nil, err
	}
	m := &RasMessage{FromExtension: fromExt}
	if fromExt {
		if index >= 0 && index < len(rasExtensionKindByIndex) {
			m.Kind = rasExtensionKindByIndex[index]
		} else {
			m.Kind = UnknownRasMessage
		}
	} else {
		m.Kind = RasMessageKind(index)
	}

	if m.Kind == UnknownRasMessage {
		m.Reserved, err = d.dec.DecodeOpenType()
		return m, err
	}

	hasExt, present, err := d.dec.DecodeSequencePreamble(true, rasOptionalCount)
	if err != nil {
		return nil, err
	}

	lb, ub := int64(0), int64(65535)
	seq, err := d.dec.DecodeInteger(&lb, &ub, false)
	if err != nil {
		return nil, err
	}
	m.RequestSeqNum = uint32(seq)

	if m.ProtocolIdentifier, err = d.DecodeProtocolIdentifier(); err != nil {
		return nil, err
	}

	if present[0] {
		s, err := d.dec.DecodeBMPString(nil, nil, false)
		if err != nil {
			return nil, err
		}
		gi := GatekeeperIdentifier(s)
		m.GatekeeperIdentifier = &gi
	}
	if present[1] {
		s, err := d.dec.DecodeBMPString(nil, nil, false)
		if err != nil {
			return nil, err
		}
		ei := EndpointIdentifier(s)
		m.EndpointIdentifier = &ei
	}
	if present[2] {
		if m.CallIdentifier, err = d.DecodeCallIdentifier(); err != nil {
			return nil, err
		}
	}
	if present[3] {
		if m.Aliases, err = d.DecodeAliasAddressSequence(); err != nil {
			return nil, err
		}
	}
	if present[4] {
		if m.RasAddress, err = d.DecodeTransportAddress(); err != nil {
			return nil, err
		}
	}
	if present[5] {
		if m.CryptoTokens, err = d.decodeCryptoTokenSequence(); err != nil {
			return nil, err
		}
	}
	if hasExt {
		known := []func([]byte) error{
			func(body []byte) error {
				var err error
				m.Generic, err = d.decodeGenericDataFromOpenType(body)
				return err
			},
		}
		if m.UnknownExtensions, err = d.dec.DecodeExtensionAdditions(known); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (e *Encoder) encodeCryptoTokenSequence(tokens []CryptoH323Token) error {
	remaining := tokens
	for {
		segment, more, err := e.enc.EncodeSequenceOfHeader(uint64(len(remaining)), nil, nil)
		if err != nil {
			return err
		}
		for i := uint64(0); i < segment; i++ {
			if err := e.EncodeCryptoH323Token(&remaining[i]); err != nil {
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

func (d *Decoder) decodeCryptoTokenSequence() ([]CryptoH323Token, error) {
	var out []CryptoH323Token
	for {
		n, more, err := d.dec.DecodeSequenceOfHeader(nil, nil)
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n; i++ {
			tok, err := d.DecodeCryptoH323Token()
			if err != nil {
				return nil, err
			}
			out = append(out, *tok)
		}
		if !more {
			break
		}
	}
	return out, nil
}
