package model

// Event is one registry event. Topic is the keccak256 hash of Signature.
type Event struct {
	Name      string            `json:"name"`
	Signature string            `json:"signature"`
	Topic     string            `json:"topic"`
	Args      map[string]string `json:"args"`
}

// EventBatch is the payload of the single chaincode event published per transaction.
type EventBatch struct {
	Registry string  `json:"registry"`
	TxID     string  `json:"txId"`
	Events   []Event `json:"events"`
}
