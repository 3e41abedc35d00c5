package h235

// ClearToken carries H.235's cleartext authentication token fields
// (clause 7, ClearToken SEQUENCE): a general ID string, an optional
// timestamp, an optional password and an optional Diffie-Hellman value.
// The random/certificate fields are not modeled and are carried as Extension
// (an extension-addition open type) so a peer that sends them still
// round-trips byte for byte.
type ClearToken struct {
	GeneralID string
	Timestamp *int64 // optional, seconds since epoch per clause 7.1
	Password  []byte // optional
	DHKey     []byte // optional, Diffie-Hellman public value
	Extension []byte

	// UnknownExtensions holds extension additions retained from a newer
	// schema version, present only when decoded with
	// per.Options.PreserveUnknownExtensions.
	UnknownExtensions [][]byte
}

const clearTokenOptionalCount = 3

func (e *Encoder) EncodeClearToken(t *ClearToken) error {
	hasExtension := len(t.Extension) > 0 || len(t.UnknownExtensions) > 0
	present := []bool{t.Timestamp != nil, len(t.Password) > 0, len(t.DHKey) > 0}
	if err := e.enc.EncodeSequencePreamble(true, hasExtension, present); err != nil {
		return err
	}
	if err := e.enc.EncodeString(t.GeneralID, nil, nil, false); err != nil {
		return err
	}
	if t.Timestamp != nil {
		lb, ub := int64(0), int64(1<<32-1)
		if err := e.enc.EncodeInteger(*t.Timestamp, &lb, &ub, false); err != nil {
			return err
		}
	}
	if len(t.Password) > 0 {
		if err := e.enc.EncodeOctetString(t.Password, nil, nil, false); err != nil {
			return err
		}
	}
	if len(t.DHKey) > 0 {
		if err := e.enc.EncodeOctetString(t.DHKey, nil, nil, false); err != nil {
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

func (d *Decoder) DecodeClearToken() (*ClearToken, error) {
	d.dec.Sink().StartElement("ClearToken", -1)
	defer d.dec.Sink().EndElement("ClearToken", -1)

	hasExt, present, err := d.dec.DecodeSequencePreamble(true, clearTokenOptionalCount)
	if err != nil {
		return nil, err
	}
	t := &ClearToken{}
	if t.GeneralID, err = d.dec.DecodeString(nil, nil, false); err != nil {
		return nil, err
	}
	if present[0] {
		lb, ub := int64(0), int64(1<<32-1)
		ts, err := d.dec.DecodeInteger(&lb, &ub, false)
		if err != nil {
			return nil, err
		}
		t.Timestamp = &ts
	}
	if present[1] {
		if t.Password, err = d.dec.DecodeOctetString(nil, nil, false); err != nil {
			return nil, err
		}
	}
	if present[2] {
		if t.DHKey, err = d.dec.DecodeOctetString(nil, nil, false); err != nil {
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

// CryptoTokenKind selects the active alternative of the CryptoToken CHOICE
// (H.235 clause 7, the type H.225's CryptoH323Token wraps). cryptoToken is
// a ClearToken; the signed/hashed alternatives carry a pre-computed MAC or
// signature this stack does not produce or verify and keeps as Opaque.
type CryptoTokenKind int

const (
	CryptoTokenClear CryptoTokenKind = iota
	CryptoTokenHashedDigest
	CryptoTokenSigned
	CryptoTokenEncrypted // extension
)

const cryptoTokenRootCount = 3

type CryptoToken struct {
	Kind          CryptoTokenKind
	FromExtension bool
	Clear         *ClearToken
	Opaque        []byte
}

func (e *Encoder) EncodeCryptoToken(c *CryptoToken) error {
	if err := e.enc.EncodeChoiceIndex(int(c.Kind), cryptoTokenRootCount, true, c.FromExtension); err != nil {
		return err
	}
	if !c.FromExtension && c.Kind == CryptoTokenClear {
		return e.EncodeClearToken(c.Clear)
	}
	return e.enc.EncodeOpenType(c.Opaque)
}

func (d *Decoder) DecodeCryptoToken() (*CryptoToken, error) {
	d.dec.Sink().StartElement("CryptoToken", -1)
	defer d.dec.Sink().EndElement("CryptoToken", -1)

	index, fromExt, err := d.dec.DecodeChoiceIndex(cryptoTokenRootCount, true)
	if err != nil {
		return nil, err
	}
	c := &CryptoToken{Kind: CryptoTokenKind(index), FromExtension: fromExt}
	if fromExt {
		c.Kind = CryptoTokenEncrypted
	}
	if !fromExt && c.Kind == CryptoTokenClear {
		c.Clear, err = d.DecodeClearToken()
		return c, err
	}
	c.Opaque, err = d.dec.DecodeOpenType()
	return c, err
}
