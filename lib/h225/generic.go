package h225

import "encoding/asn1"

// ContentKind selects the active alternative of the Content CHOICE used
// inside GenericData/GenericParameter (H.225.0 clause 7.2, generic
// extensible framework). Nested and Compound are the two alternatives that
// make Content/GenericData mutually recursive; every entry into either is
// bounded by per.Options.MaxRecursionDepth via Encoder/Decoder.EnterRecursion.
type ContentKind int

const (
	ContentOctets ContentKind = iota
	ContentText
	ContentNested   // SEQUENCE OF Content
	ContentCompound // nested GenericData
)

const contentRootCount = 4

// Content is one parameter value in a GenericData extension. Octets/Text
// are leaves; Nested and Compound recurse.
type Content struct {
	Kind     ContentKind
	Octets   []byte
	Text     string
	Nested   []Content
	Compound *GenericData
}

// GenericIdentifier mirrors H.225.0's GenericIdentifier CHOICE (standard/
// oid/nonStandard); this stack only needs the OID form to exercise the
// recursive mechanism end-to-end.
type GenericIdentifier asn1.ObjectIdentifier

// GenericParameter is one {id, value} pair of a GenericData's parameter list.
type GenericParameter struct {
	ID    GenericIdentifier
	Value Content
}

// GenericData is H.225.0's vendor/version extensible-data container,
// exercised here as the RasMessage extension addition and as the
// recursion-bound stress case (scenario/property 6: depth exceeding
// per.Options.MaxRecursionDepth fails ConstraintViolation rather than
// overflowing the goroutine stack).
type GenericData struct {
	ID         GenericIdentifier
	Parameters []GenericParameter
}

func (e *Encoder) EncodeContent(c *Content) error {
	if err := e.enc.EncodeChoiceIndex(int(c.Kind), contentRootCount, false, false); err != nil {
		return err
	}
	switch c.Kind {
	case ContentOctets:
		return e.enc.EncodeOctetString(c.Octets, nil, nil, false)
	case ContentText:
		return e.enc.EncodeBMPString(c.Text, nil, nil, false)
	case ContentNested:
		leave, err := e.enc.EnterRecursion()
		if err != nil {
			return err
		}
		defer leave()
		return e.encodeContentSequence(c.Nested)
	case ContentCompound:
		return e.EncodeGenericData(c.Compound)
	}
	return nil
}

func (d *Decoder) DecodeContent() (*Content, error) {
	d.dec.Sink().StartElement("Content", -1)
	defer d.dec.Sink().EndElement("Content", -1)

	index, _, err := d.dec.DecodeChoiceIndex(contentRootCount, false)
	if err != nil {
		return nil, err
	}
	c := &Content{Kind: ContentKind(index)}
	switch c.Kind {
	case ContentOctets:
		c.Octets, err = d.dec.DecodeOctetString(nil, nil, false)
	case ContentText:
		c.Text, err = d.dec.DecodeBMPString(nil, nil, false)
	case ContentNested:
		leave, lerr := d.dec.EnterRecursion()
		if lerr != nil {
			return nil, lerr
		}
		defer leave()
		c.Nested, err = d.decodeContentSequence()
	case ContentCompound:
		c.Compound, err = d.DecodeGenericData()
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Encoder) encodeContentSequence(items []Content) error {
	remaining := items
	for {
		segment, more, err := e.enc.EncodeSequenceOfHeader(uint64(len(remaining)), nil, nil)
		if err != nil {
			return err
		}
		for i := uint64(0); i < segment; i++ {
			if err := e.EncodeContent(&remaining[i]); err != nil {
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

func (d *Decoder) decodeContentSequence() ([]Content, error) {
	var out []Content
	for {
		n, more, err := d.dec.DecodeSequenceOfHeader(nil, nil)
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n; i++ {
			c, err := d.DecodeContent()
			if err != nil {
				return nil, err
			}
			out = append(out, *c)
		}
		if !more {
			break
		}
	}
	return out, nil
}

func (e *Encoder) EncodeGenericData(g *GenericData) error {
	leave, err := e.enc.EnterRecursion()
	if err != nil {
		return err
	}
	defer leave()

	if err := e.enc.EncodeObjectIdentifier(asn1.ObjectIdentifier(g.ID)); err != nil {
		return err
	}
	remaining := g.Parameters
	for {
		segment, more, err := e.enc.EncodeSequenceOfHeader(uint64(len(remaining)), nil, nil)
		if err != nil {
			return err
		}
		for i := uint64(0); i < segment; i++ {
			p := remaining[i]
			if err := e.enc.EncodeObjectIdentifier(asn1.ObjectIdentifier(p.ID)); err != nil {
				return err
			}
			if err := e.EncodeContent(&p.Value); err != nil {
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

func (d *Decoder) DecodeGenericData() (*GenericData, error) {
	d.dec.Sink().StartElement("GenericData", -1)
	defer d.dec.Sink().EndElement("GenericData", -1)

	leave, err := d.dec.EnterRecursion()
	if err != nil {
		return nil, err
	}
	defer leave()

	oid, err := d.dec.DecodeObjectIdentifier()
	if err != nil {
		return nil, err
	}
	g := &GenericData{ID: GenericIdentifier(oid)}
	for {
		n, more, err := d.dec.DecodeSequenceOfHeader(nil, nil)
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n; i++ {
			pid, err := d.dec.DecodeObjectIdentifier()
			if err != nil {
				return nil, err
			}
			val, err := d.DecodeContent()
			if err != nil {
				return nil, err
			}
			g.Parameters = append(g.Parameters, GenericParameter{ID: GenericIdentifier(pid), Value: *val})
		}
		if !more {
			break
		}
	}
	return g, nil
}

// encodeGenericDataAsOpenType encodes g as a self-contained PER fragment
// (its own fresh Encoder) so the bytes can be wrapped in an outer open type
// field without the outer schema needing to know GenericData's shape.
func (e *Encoder) encodeGenericDataAsOpenType(g *GenericData) ([]byte, error) {
	inner := &Encoder{enc: cloneEncoderOptions(e.enc)}
	if err := inner.EncodeGenericData(g); err != nil {
		return nil, err
	}
	return inner.Bytes(), nil
}

func (d *Decoder) decodeGenericDataFromOpenType(data []byte) (*GenericData, error) {
	inner := &Decoder{dec: cloneDecoderOptions(d.dec, data)}
	return inner.DecodeGenericData()
}
