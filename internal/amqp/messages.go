package amqp

import (
	"encoding/json"
	"fmt"

	"chantierfin/internal/core"
)

// EncodeEvenement serialise un evenement financier pour le fil.
func EncodeEvenement(ev core.EvenementFinancier) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeEvenement relit un evenement financier depuis le fil.
func DecodeEvenement(data []byte) (*core.EvenementFinancier, error) {
	var ev core.EvenementFinancier
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("unmarshal evenement: %w", err)
	}
	return &ev, nil
}
