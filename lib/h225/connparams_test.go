package h225

import (
	"testing"

	"github.com/h323go/stack/lib/per"
)

func TestRoundtripConnectionParameters(t *testing.T) {
	setup := &Setup_UUIE{
		ProtocolIdentifier: ProtocolIdentifier{0, 0, 8, 2250, 0, 6},
		SourceInfo:         &EndpointType{IsGateway: true},
		CallIdentifier:     &CallIdentifier{},
		ConnectionParameters: &ConnectionParameters{
			ConnectionType:         ScnHybrid384,
			NumberOfScnConnections: 6,
			ConnectionAggregation:  ScnAggregationBondedMode1,
		},
	}
	enc := NewEncoder(true)
	if err := enc.EncodeSetupUUIE(setup); err != nil {
		t.Fatalf("EncodeSetupUUIE error = %v", err)
	}
	dec := NewDecoder(enc.Bytes(), true)
	got, err := dec.DecodeSetupUUIE()
	if err != nil {
		t.Fatalf("DecodeSetupUUIE error = %v", err)
	}
	cp := got.ConnectionParameters
	if cp == nil {
		t.Fatal("ConnectionParameters = nil, want decoded value")
	}
	if cp.ConnectionType != ScnHybrid384 {
		t.Errorf("ConnectionType = %v, want ScnHybrid384", cp.ConnectionType)
	}
	if cp.NumberOfScnConnections != 6 {
		t.Errorf("NumberOfScnConnections = %d, want 6", cp.NumberOfScnConnections)
	}
	if cp.ConnectionAggregation != ScnAggregationBondedMode1 {
		t.Errorf("ConnectionAggregation = %v, want ScnAggregationBondedMode1", cp.ConnectionAggregation)
	}
	if len(got.FastStart) != 0 {
		t.Errorf("FastStart = %v, want empty", got.FastStart)
	}
}

func TestConnectionTypeExtensionValueStrictEnum(t *testing.T) {
	// An enumeration value beyond the extension root: a strict decoder
	// fails InvalidEnumerationValue, a lenient one surfaces the value.
	enc := NewEncoder(true)
	if err := enc.enc.EncodeSequencePreamble(true, false, nil); err != nil {
		t.Fatalf("EncodeSequencePreamble error = %v", err)
	}
	if err := enc.enc.EncodeEnumerated(scnConnectionTypeCount+1, scnConnectionTypeCount, true); err != nil {
		t.Fatalf("EncodeEnumerated error = %v", err)
	}
	lb, ub := int64(0), int64(65535)
	if err := enc.enc.EncodeInteger(2, &lb, &ub, false); err != nil {
		t.Fatalf("EncodeInteger error = %v", err)
	}
	if err := enc.enc.EncodeEnumerated(uint64(ScnAggregationNone), scnConnectionAggregationCount, true); err != nil {
		t.Fatalf("EncodeEnumerated error = %v", err)
	}
	data := enc.Bytes()

	strict := NewDecoder(data, true)
	if _, err := strict.DecodeConnectionParameters(); err == nil {
		t.Fatal("strict decode of an extension enumeration value: expected error, got nil")
	} else if pe, ok := err.(*per.Error); !ok || pe.Kind != per.InvalidEnumerationValue {
		t.Errorf("strict decode error = %v, want InvalidEnumerationValue", err)
	}

	opts := per.DefaultOptions()
	opts.StrictEnum = false
	lenient := NewDecoderWithOptions(data, true, opts)
	got, err := lenient.DecodeConnectionParameters()
	if err != nil {
		t.Fatalf("lenient decode error = %v", err)
	}
	if got.ConnectionType != ScnConnectionType(scnConnectionTypeCount+1) {
		t.Errorf("ConnectionType = %v, want the raw extension value %d surfaced as-is",
			got.ConnectionType, scnConnectionTypeCount+1)
	}
	if got.NumberOfScnConnections != 2 {
		t.Errorf("NumberOfScnConnections = %d, want 2", got.NumberOfScnConnections)
	}
}
