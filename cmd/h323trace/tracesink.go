package main

import (
	"encoding/asn1"
	"strings"

	"github.com/sirupsen/logrus"
)

// traceSink implements per.EventSink, rendering an indented decode trace to
// a logrus logger at debug level. It is pure observation: it never touches
// the cursor or the decoded value.
type traceSink struct {
	log   *logrus.Logger
	depth int
}

func newTraceSink(log *logrus.Logger) *traceSink {
	return &traceSink{log: log}
}

func (t *traceSink) indent() string {
	return strings.Repeat("  ", t.depth)
}

func (t *traceSink) StartElement(name string, index int) {
	if index >= 0 {
		t.log.Debugf("%s%s[%d] {", t.indent(), name, index)
	} else {
		t.log.Debugf("%s%s {", t.indent(), name)
	}
	t.depth++
}

func (t *traceSink) EndElement(name string, index int) {
	if t.depth > 0 {
		t.depth--
	}
	t.log.Debugf("%s}", t.indent())
}

func (t *traceSink) Uint(name string, value uint64) {
	t.log.Debugf("%s%s = %d", t.indent(), name, value)
}

func (t *traceSink) Bool(name string, value bool) {
	t.log.Debugf("%s%s = %v", t.indent(), name, value)
}

func (t *traceSink) Int(name string, value int64) {
	t.log.Debugf("%s%s = %d", t.indent(), name, value)
}

func (t *traceSink) OID(name string, value asn1.ObjectIdentifier) {
	t.log.Debugf("%s%s = %s", t.indent(), name, value.String())
}

func (t *traceSink) Octets(name string, value []byte) {
	t.log.Debugf("%s%s = % x", t.indent(), name, value)
}

func (t *traceSink) CharString(name string, value string) {
	t.log.Debugf("%s%s = %q", t.indent(), name, value)
}

func (t *traceSink) BMPString(name string, value string) {
	t.log.Debugf("%s%s = %q", t.indent(), name, value)
}

func (t *traceSink) BitString(name string, value []byte, bitLength int) {
	t.log.Debugf("%s%s = % x (%d bits)", t.indent(), name, value, bitLength)
}

func (t *traceSink) Null(name string) {
	t.log.Debugf("%s%s = NULL", t.indent(), name)
}

func (t *traceSink) OpenType(name string, value []byte) {
	t.log.Debugf("%s%s = <%d open-type octets>", t.indent(), name, len(value))
}
