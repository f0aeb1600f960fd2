package hardware

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/relaycycle/internal/relay"
)

func TestOutputApply(t *testing.T) {
	tests := []struct {
		name      string
		relay     relay.Relay
		wantLevel bool
	}{
		{name: "on drives high", relay: relay.Relay{ID: "pump", Pin: 17, Status: true}, wantLevel: true},
		{name: "off drives low", relay: relay.Relay{ID: "pump", Pin: 17}, wantLevel: false},
		{name: "inverted on drives low", relay: relay.Relay{ID: "fan", Pin: 22, Status: true, Inverted: true}, wantLevel: false},
		{name: "inverted off drives high", relay: relay.Relay{ID: "fan", Pin: 22, Inverted: true}, wantLevel: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := NewFakeDriver()
			out := NewOutput(drv, nil)

			if err := out.Apply(tt.relay); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			level, held := drv.Level(tt.relay.Pin)
			if !held {
				t.Fatal("pin not driven")
			}
			if level != tt.wantLevel {
				t.Errorf("level = %v, want %v", level, tt.wantLevel)
			}
		})
	}
}

func TestOutputApply_RepinReleasesOldLine(t *testing.T) {
	drv := NewFakeDriver()
	out := NewOutput(drv, nil)

	if err := out.Apply(relay.Relay{ID: "pump", Pin: 17, Status: true}); err != nil {
		t.Fatal(err)
	}
	if err := out.Apply(relay.Relay{ID: "pump", Pin: 27, Status: true}); err != nil {
		t.Fatal(err)
	}

	if got := drv.Released(); !reflect.DeepEqual(got, []int{17}) {
		t.Errorf("Released() = %v, want [17]", got)
	}
	if _, held := drv.Level(17); held {
		t.Error("old pin still held")
	}
}

func TestOutputApply_DriverError(t *testing.T) {
	drv := NewFakeDriver()
	drv.SetError = errors.New("line busy")
	out := NewOutput(drv, nil)

	err := out.Apply(relay.Relay{ID: "pump", Pin: 17, Status: true})
	if err == nil || !errors.Is(err, drv.SetError) {
		t.Errorf("Apply() error = %v, want wrapped driver error", err)
	}
}

func TestOutputSync(t *testing.T) {
	drv := NewFakeDriver()
	out := NewOutput(drv, nil)

	relays := []relay.Relay{
		{ID: "pump", Pin: 17, Status: true},
		{ID: "fan", Pin: 22},
	}
	if err := out.Sync(relays); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	want := []Write{{Pin: 17, Level: true}, {Pin: 22, Level: false}}
	if got := drv.Writes(); !reflect.DeepEqual(got, want) {
		t.Errorf("Writes() = %v, want %v", got, want)
	}

	if err := out.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !drv.Closed() {
		t.Error("driver not closed")
	}
	if err := drv.Set(17, true); !errors.Is(err, ErrClosed) {
		t.Errorf("Set() after Close error = %v, want ErrClosed", err)
	}
}
