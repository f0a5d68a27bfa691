package steemengine

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// CustomJSON is the payload of a sidechain custom_json operation: which
// contract to invoke, which action, and the action's arguments.
type CustomJSON struct {
	ContractName    string `json:"contractName"`
	ContractAction  string `json:"contractAction"`
	ContractPayload any    `json:"contractPayload"`
}

// ContractTransfer is the decoded data of a contract transfer log event.
type ContractTransfer struct {
	Sender   string
	To       string
	Symbol   string
	Quantity decimal.Decimal
}

// LogEvent is one event emitted during sidechain transaction execution. For
// transferToContract/transferFromContract events Transfer carries the decoded
// transfer data; for other events it is nil and Data holds the raw fields.
type LogEvent struct {
	Contract string         `json:"contract"`
	Event    string         `json:"event"`
	Data     map[string]any `json:"data"`

	Transfer *ContractTransfer `json:"-"`
}

// TransactionLogs is the decoded logs field of a sidechain transaction.
type TransactionLogs struct {
	Errors []string   `json:"errors"`
	Events []LogEvent `json:"events"`
}

// TransactionInfo is a sidechain transaction as recorded by the SteemEngine
// node, i.e. the executed form of a custom_json operation.
type TransactionInfo struct {
	BlockNumber      int64
	RefBlockNumber   int64
	TransactionID    string
	Sender           string
	Contract         string
	Action           string
	Hash             string
	DatabaseHash     string
	ExecutedCodeHash string

	// Payload is the decoded contract payload. When the node delivers a
	// payload string that fails to decode, Payload is nil and the raw string
	// stays reachable through Raw.
	Payload map[string]any
	// Logs are the decoded execution logs, including contract events.
	Logs TransactionLogs

	Raw map[string]any
}

// Events returns the log events of the transaction.
func (t *TransactionInfo) Events() []LogEvent {
	return t.Logs.Events
}

// ParseTransactionInfo builds a TransactionInfo from a raw getTransactionInfo
// response.
func ParseTransactionInfo(raw json.RawMessage) (*TransactionInfo, error) {
	var aux struct {
		BlockNumber         int64           `json:"blockNumber"`
		RefSteemBlockNumber int64           `json:"refSteemBlockNumber"`
		RefHiveBlockNumber  int64           `json:"refHiveBlockNumber"`
		TransactionID       string          `json:"transactionId"`
		Sender              string          `json:"sender"`
		From                string          `json:"from"`
		Contract            string          `json:"contract"`
		Action              string          `json:"action"`
		Hash                string          `json:"hash"`
		DatabaseHash        string          `json:"databaseHash"`
		ExecutedCodeHash    string          `json:"executedCodeHash"`
		Payload             json.RawMessage `json:"payload"`
		Logs                json.RawMessage `json:"logs"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, fmt.Errorf("parse transaction info: %w", err)
	}

	refBlock := aux.RefSteemBlockNumber
	if refBlock == 0 {
		refBlock = aux.RefHiveBlockNumber
	}
	sender := aux.Sender
	if sender == "" {
		sender = aux.From
	}
	info := &TransactionInfo{
		BlockNumber:      aux.BlockNumber,
		RefBlockNumber:   refBlock,
		TransactionID:    aux.TransactionID,
		Sender:           sender,
		Contract:         aux.Contract,
		Action:           aux.Action,
		Hash:             aux.Hash,
		DatabaseHash:     aux.DatabaseHash,
		ExecutedCodeHash: aux.ExecutedCodeHash,
		Raw:              rawMap(raw),
	}

	// Both payload and logs arrive as JSON-encoded strings. Broken ones are
	// not fatal; the raw string stays available via Raw.
	if err := decodeNested(aux.Payload, &info.Payload); err != nil {
		slog.Warn("failed to decode transaction payload",
			"txid", info.TransactionID, "error", err)
	}
	if err := decodeNested(aux.Logs, &info.Logs); err != nil {
		slog.Warn("failed to decode transaction logs",
			"txid", info.TransactionID, "error", err)
	}

	for i := range info.Logs.Events {
		ev := &info.Logs.Events[i]
		if ev.Event != "transferToContract" && ev.Event != "transferFromContract" {
			continue
		}
		transfer, err := parseContractTransfer(ev.Data)
		if err != nil {
			slog.Warn("failed to decode contract transfer event",
				"txid", info.TransactionID, "event", ev.Event, "error", err)
			continue
		}
		ev.Transfer = transfer
	}
	return info, nil
}

func parseContractTransfer(data map[string]any) (*ContractTransfer, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var aux struct {
		From     string           `json:"from"`
		Sender   string           `json:"sender"`
		To       string           `json:"to"`
		Symbol   string           `json:"symbol"`
		Quantity *decimal.Decimal `json:"quantity"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, err
	}
	sender := aux.From
	if sender == "" {
		sender = aux.Sender
	}
	return &ContractTransfer{
		Sender:   sender,
		To:       aux.To,
		Symbol:   aux.Symbol,
		Quantity: pickDecimal(aux.Quantity),
	}, nil
}
