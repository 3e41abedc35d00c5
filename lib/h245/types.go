package h245

// MultimediaSystemControlMessageKind selects the active alternative of the
// MultimediaSystemControlMessage CHOICE (H.245 clause 8, the top-level PDU
// every H.245 message arrives as). The root list has three alternatives —
// request, response, command; indication is a post-v1 extension addition,
// matching the same root/extension shape H323_UU_PDU uses in lib/h225.
type MultimediaSystemControlMessageKind int

const (
	MscmRequest MultimediaSystemControlMessageKind = iota
	MscmResponse
	MscmCommand
	MscmIndication // extension
	MscmUnknown    // reserved: newer alternative than this schema
)

const mscmRootCount = 3

// RequestMessageKind names the handful of RequestMessage alternatives this
// stack distinguishes by tag; payloads are not modeled field-by-field
// beyond OpenLogicalChannel (see below) and are otherwise carried as
// Opaque so an endpoint's capability exchange still round-trips byte for
// byte through a peer that only understands request framing.
type RequestMessageKind int

const (
	ReqMasterSlaveDetermination RequestMessageKind = iota
	ReqTerminalCapabilitySet
	ReqOpenLogicalChannel
	ReqCloseLogicalChannel
	ReqOther // catch-all for the remaining ~20 RequestMessage alternatives
)

const requestMessageRootCount = 4

// MultimediaSystemControlMessage is H.245's top-level PDU. Only the
// request/OpenLogicalChannel path is modeled as a real SEQUENCE; the
// remaining request kinds, and the response/command bodies entirely, are
// carried as Opaque; indication and other extension bodies are carried as
// Reserved.
type MultimediaSystemControlMessage struct {
	Kind          MultimediaSystemControlMessageKind
	FromExtension bool

	RequestKind RequestMessageKind
	OLC         *OpenLogicalChannel
	Opaque      []byte
	Reserved    []byte
}

func (e *Encoder) EncodeMultimediaSystemControlMessage(m *MultimediaSystemControlMessage) error {
	if err := e.enc.EncodeChoiceIndex(int(m.Kind), mscmRootCount, true, m.FromExtension); err != nil {
		return err
	}
	if m.FromExtension || m.Kind == MscmUnknown {
		return e.enc.EncodeOpenType(m.Reserved)
	}
	if m.Kind != MscmRequest {
		return e.enc.EncodeOpenType(m.Opaque)
	}
	if err := e.enc.EncodeChoiceIndex(int(m.RequestKind), requestMessageRootCount, true, false); err != nil {
		return err
	}
	if m.RequestKind == ReqOpenLogicalChannel {
		return e.EncodeOpenLogicalChannel(m.OLC)
	}
	return e.enc.EncodeOpenType(m.Opaque)
}

func (d *Decoder) DecodeMultimediaSystemControlMessage() (*MultimediaSystemControlMessage, error) {
	d.dec.Sink().StartElement("MultimediaSystemControlMessage", -1)
	defer d.dec.Sink().EndElement("MultimediaSystemControlMessage", -1)

	index, fromExt, err := d.dec.DecodeChoiceIndex(mscmRootCount, true)
	if err != nil {
		return nil, err
	}
	m := &MultimediaSystemControlMessage{FromExtension: fromExt}
	if fromExt {
		if index == 0 {
			m.Kind = MscmIndication
		} else {
			m.Kind = MscmUnknown
		}
		m.Reserved, err = d.dec.DecodeOpenType()
		return m, err
	}
	m.Kind = MultimediaSystemControlMessageKind(index)
	if m.Kind != MscmRequest {
		m.Opaque, err = d.dec.DecodeOpenType()
		return m, err
	}
	rIndex, rFromExt, err := d.dec.DecodeChoiceIndex(requestMessageRootCount, true)
	if err != nil {
		return nil, err
	}
	if rFromExt {
		m.RequestKind = ReqOther
		m.Opaque, err = d.dec.DecodeOpenType()
		return m, err
	}
	m.RequestKind = RequestMessageKind(rIndex)
	if m.RequestKind == ReqOpenLogicalChannel {
		m.OLC, err = d.DecodeOpenLogicalChannel()
		return m, err
	}
	m.Opaque, err = d.dec.DecodeOpenType()
	return m, err
}

// OpenLogicalChannel is H.245's channel-open request (clause 8.2). Only
// the outer shape — a numbered logical channel plus opaque forward/reverse
// media descriptions — is modeled; the nested DataType/H2250LogicalChannel
// parameter CHOICEs are non-goals (channel-control business logic) and are
// carried as Opaque so the whole PDU still round-trips.
type OpenLogicalChannel struct {
	LogicalChannelNumber uint16
	ForwardDescription   []byte
	ReverseDescription   []byte // optional
}

const olcOptionalCount = 1

func (e *Encoder) EncodeOpenLogicalChannel(o *OpenLogicalChannel) error {
	present := []bool{len(o.ReverseDescription) > 0}
	if err := e.enc.EncodeSequencePreamble(true, false, present); err != nil {
		return err
	}
	lb, ub := int64(0), int64(65535)
	if err := e.enc.EncodeInteger(int64(o.LogicalChannelNumber), &lb, &ub, false); err != nil {
		return err
	}
	if err := e.enc.EncodeOpenType(o.ForwardDescription); err != nil {
		return err
	}
	if len(o.ReverseDescription) > 0 {
		if err := e.enc.EncodeOpenType(o.ReverseDescription); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) DecodeOpenLogicalChannel() (*OpenLogicalChannel, error) {
	d.dec.Sink().StartElement("OpenLogicalChannel", -1)
	defer d.dec.Sink().EndElement("OpenLogicalChannel", -1)

	_, present, err := d.dec.DecodeSequencePreamble(true, olcOptionalCount)
	if err != nil {
		return nil, err
	}
	o := &OpenLogicalChannel{}
	lb, ub := int64(0), int64(65535)
	num, err := d.dec.DecodeInteger(&lb, &ub, false)
	if err != nil {
		return nil, err
	}
	o.LogicalChannelNumber = uint16(num)
	if o.ForwardDescription, err = d.dec.DecodeOpenType(); err != nil {
		return nil, err
	}
	if present[0] {
		if o.ReverseDescription, err = d.dec.DecodeOpenType(); err != nil {
			return nil, err
		}
	}
	return o, nil
}
