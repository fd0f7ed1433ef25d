package events

import (
	"testing"

	"github.com/Sindrekaurin/grefur-backend/internal/domain"
)

func TestLineageWalksToAny(t *testing.T) {
	got := KindSystemReady.Lineage()
	want := []Kind{KindSystemReady, KindLifecycle, KindAny}
	if len(got) != len(want) {
		t.Fatalf("lineage = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lineage[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRootKindLineage(t *testing.T) {
	got := KindValueReceived.Lineage()
	if len(got) != 2 || got[1] != KindAny {
		t.Fatalf("kinds without a parent go straight to KindAny, got %v", got)
	}
}

func TestNewMetaRequiresSourceAndCorrelation(t *testing.T) {
	for name, fn := range map[string]func(){
		"missing source":      func() { NewMeta("", "corr") },
		"missing correlation": func() { NewMeta("src", "") },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s must panic", name)
				}
			}()
			fn()
		}()
	}
}

// Every concrete event must satisfy Event through the embedded envelope; the
// accessor lives on Meta itself, so embedding is all an event needs.
var _ = []Event{
	SystemStarting{}, SystemReady{}, SystemFailed{},
	BrokerConnection{}, MqttMessageReceived{},
	CustomerLoaded{}, CacheReady{}, DeviceRegistered{}, TopicBound{},
	ValueReceived{}, AlarmRaised{}, LogPoint{}, TrainAndPublish{},
	RequestCustomerValueEnrichment{}, ResponseCustomerValueEnrichment{},
	CustomerQuery{}, CustomerQueryResponse{},
}

func TestMetaPromotion(t *testing.T) {
	ev := NewSystemStarting("test", "corr-1")
	if ev.EventMeta().CorrelationID != "corr-1" || ev.EventMeta().Source != "test" {
		t.Fatalf("embedded meta not promoted: %+v", ev.EventMeta())
	}
	if ev.EventMeta().ID == "" || ev.EventMeta().OccurredAt.IsZero() {
		t.Fatalf("meta must carry a minted id and timestamp")
	}
	// The envelope must be reachable through the interface and through the
	// concrete value alike, and the embedded fields stay directly accessible.
	var iface Event = ev
	if iface.EventMeta().CorrelationID != ev.CorrelationID {
		t.Fatalf("interface and concrete accessors disagree")
	}
}

func TestPayloadMirrorsTypedFields(t *testing.T) {
	ev := NewCustomerLoaded(&domain.Customer{ID: "CUST-001"}, "test", "corr-1")
	if ev.Payload()["customerId"] != "CUST-001" {
		t.Fatalf("payload = %v", ev.Payload())
	}
	if ev.ScopeKey() != "CUST-001" {
		t.Fatalf("scope key = %s", ev.ScopeKey())
	}
}
