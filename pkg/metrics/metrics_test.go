package metrics

import "testing"

func TestRegistryIsSet(t *testing.T) {
	if Registry == nil {
		t.Fatal("Registry = nil, want the default registerer")
	}
}
