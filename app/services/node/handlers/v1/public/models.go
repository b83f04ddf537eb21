package public

import (
	"github.com/okilalu/Blockchain/business/sys/validate"
	"github.com/okilalu/Blockchain/foundation/blockchain/database"
)

type block struct {
	Index        uint64            `json:"index"`
	PreviousHash string            `json:"previous_hash"`
	TimeStamp    int64             `json:"timestamp"`
	Records      []database.Record `json:"records"`
	Nonce        uint64            `json:"nonce"`
	Hash         string            `json:"hash"`
	Difficulty   uint              `json:"difficulty"`
	Signature    string            `json:"signature"`
	PublicKey    string            `json:"public_key"`
	Signer       string            `json:"signer"`
	SignerName   string            `json:"signer_name"`
}

type chainInfo struct {
	Chain  []block `json:"chain"`
	Length int     `json:"length"`
}

type submitted struct {
	Message  string `json:"message"`
	RecordID string `json:"record_id"`
	Index    uint64 `json:"index"`
}

type pending struct {
	Count   int               `json:"count"`
	Records []database.Record `json:"records"`
}

type keyStatus struct {
	Key     string `json:"key"`
	OnChain bool   `json:"on_chain"`
	Pending bool   `json:"pending"`
}

type mined struct {
	Message  string `json:"message"`
	Block    block  `json:"block"`
	Duration string `json:"duration"`
}

type peers struct {
	Host  string   `json:"host"`
	Nodes []string `json:"nodes"`
}

type synced struct {
	Message string  `json:"message"`
	Adopted bool    `json:"adopted"`
	Peer    string  `json:"peer,omitempty"`
	Length  int     `json:"length"`
	Chain   []block `json:"chain"`
}

// =============================================================================

// newTransaction is the transfer document the first ledger clients send. It
// is stored as a record holding exactly these fields.
type newTransaction struct {
	Sender    string `json:"sender" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Amount    any    `json:"amount" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (nt newTransaction) Validate() error {
	return validate.Check(nt)
}

func (nt newTransaction) toRecord() database.Record {
	return database.Record{
		"sender":    nt.Sender,
		"recipient": nt.Recipient,
		"amount":    nt.Amount,
	}
}

// newPeers is the set of node addresses to register.
type newPeers struct {
	Nodes []string `json:"nodes" validate:"required,min=1,dive,required"`
}

// Validate checks the data in the model is considered clean.
func (np newPeers) Validate() error {
	return validate.Check(np)
}
