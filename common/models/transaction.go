package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/opencontainers/go-digest"
)

// Transaction operations
const (
	OperationCreate   = "CREATE"
	OperationTransfer = "TRANSFER"
)

// TransactionVersion is the wire version of the transaction format
const TransactionVersion = "2.0"

// ConditionTypeEd25519 is the only spend condition type the protocol issues
const ConditionTypeEd25519 = "ed25519-sha-256"

// Transaction is an immutable signed record appended to the ledger.
// A CREATE carries the full asset payload; a TRANSFER references the
// originating CREATE id and carries the updated file-info snapshot in
// Metadata. Transactions form a singly-linked chain per asset through
// Inputs[0].Fulfills.
type Transaction struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Version   string    `json:"version"`
	Asset     Asset     `json:"asset"`
	Inputs    []Input   `json:"inputs"`
	Outputs   []Output  `json:"outputs"`
	Metadata  *Metadata `json:"metadata"`
}

// Asset identifies what a transaction is about. Exactly one of Data
// (CREATE) or ID (TRANSFER, pointing at the CREATE transaction) is set.
type Asset struct {
	ID   string     `json:"id,omitempty"`
	Data *AssetData `json:"data,omitempty"`
}

// AssetData is the CREATE-time asset payload
type AssetData struct {
	FileInfo    FileInfo `json:"file_info"`
	Description string   `json:"description"`
}

// Metadata is the per-transaction file-info snapshot. On TRANSFER the
// owner fields reflect the new owner; the file identity fields never
// change.
type Metadata struct {
	FileInfo FileInfo `json:"file_info"`
}

// FileInfo describes the deposited file and its current custodian
type FileInfo struct {
	CID              string    `json:"cid"`
	FileName         string    `json:"file_name"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	CreationTime     time.Time `json:"creation_time"`
	ModificationTime time.Time `json:"modification_time"`
	OwnerKey         string    `json:"owner_key"`
	OwnerName        string    `json:"owner_name"`
}

// Input authorizes spending a prior output. For CREATE, Fulfills is nil
// and OwnersBefore declares the asset creator.
type Input struct {
	OwnersBefore []string   `json:"owners_before"`
	Fulfills     *OutputRef `json:"fulfills"`
	Fulfillment  string     `json:"fulfillment,omitempty"`
}

// OutputRef points at a specific output of a prior transaction
type OutputRef struct {
	TransactionID string `json:"transaction_id"`
	OutputIndex   int    `json:"output_index"`
}

// Output records the new owner and the condition a future spend must satisfy
type Output struct {
	PublicKeys []string  `json:"public_keys"`
	Condition  Condition `json:"condition"`
	Amount     string    `json:"amount"`
}

// Condition is the public-key-derived spend predicate
type Condition struct {
	Details ConditionDetails `json:"details"`
	URI     string           `json:"uri"`
}

// ConditionDetails names the signature scheme and the key that must sign
type ConditionDetails struct {
	Type      string `json:"type"`
	PublicKey string `json:"public_key"`
}

// NewOutput builds the single-owner output for a public key
func NewOutput(publicKey string) Output {
	condDigest := digest.FromString(ConditionTypeEd25519 + ":" + publicKey)
	return Output{
		PublicKeys: []string{publicKey},
		Condition: Condition{
			Details: ConditionDetails{
				Type:      ConditionTypeEd25519,
				PublicKey: publicKey,
			},
			URI: fmt.Sprintf("ni:///sha-256;%s?fpt=%s&cost=131072", condDigest.Encoded(), ConditionTypeEd25519),
		},
		Amount: "1",
	}
}

// Validate rejects structurally incomplete transactions at construction
// time rather than at field access time.
func (t *Transaction) Validate() error {
	if t.Version != TransactionVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrMalformedAsset, t.Version)
	}
	if len(t.Inputs) != 1 {
		return fmt.Errorf("%w: expected exactly one input, got %d", ErrMalformedAsset, len(t.Inputs))
	}
	if len(t.Outputs) == 0 {
		return fmt.Errorf("%w: transaction has no outputs", ErrMalformedAsset)
	}
	for i, out := range t.Outputs {
		if len(out.PublicKeys) == 0 || out.Condition.Details.PublicKey == "" {
			return fmt.Errorf("%w: output %d has no owner", ErrMalformedAsset, i)
		}
	}
	if len(t.Inputs[0].OwnersBefore) == 0 {
		return fmt.Errorf("%w: input has no owners_before", ErrMalformedAsset)
	}

	switch t.Operation {
	case OperationCreate:
		if t.Inputs[0].Fulfills != nil {
			return fmt.Errorf("%w: CREATE input must not fulfill a prior output", ErrMalformedAsset)
		}
		if t.Asset.Data == nil {
			return fmt.Errorf("%w: CREATE is missing the asset payload", ErrMalformedAsset)
		}
		if t.Asset.Data.FileInfo.CID == "" {
			return fmt.Errorf("%w: CREATE asset has no cid", ErrMalformedAsset)
		}
		if t.Asset.Data.FileInfo.OwnerKey == "" {
			return fmt.Errorf("%w: CREATE asset has no owner key", ErrMalformedAsset)
		}
	case OperationTransfer:
		if t.Asset.ID == "" {
			return fmt.Errorf("%w: TRANSFER is missing the asset id", ErrMalformedAsset)
		}
		if t.Inputs[0].Fulfills == nil || t.Inputs[0].Fulfills.TransactionID == "" {
			return fmt.Errorf("%w: TRANSFER input fulfills nothing", ErrMalformedAsset)
		}
		if t.Metadata == nil || t.Metadata.FileInfo.CID == "" {
			return fmt.Errorf("%w: TRANSFER is missing the file_info snapshot", ErrMalformedAsset)
		}
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrMalformedAsset, t.Operation)
	}

	return nil
}

// CanonicalBytes returns the deterministic serialization the id and
// every fulfillment are bound to: the transaction with an empty id and
// all fulfillments stripped. Field order is fixed by the struct
// definitions, so equal transactions always produce equal bytes.
func (t *Transaction) CanonicalBytes() ([]byte, error) {
	clone := *t
	clone.ID = ""

	inputs := make([]Input, len(t.Inputs))
	copy(inputs, t.Inputs)
	for i := range inputs {
		inputs[i].Fulfillment = ""
	}
	clone.Inputs = inputs

	data, err := json.Marshal(&clone)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return data, nil
}

// ComputeID derives the content-addressed transaction id
func (t *Transaction) ComputeID() (string, error) {
	canonical, err := t.CanonicalBytes()
	if err != nil {
		return "", err
	}
	return digest.FromBytes(canonical).Encoded(), nil
}

// AssetID returns the permanent asset identity: the CREATE transaction
// id, regardless of how far the custody chain has advanced.
func (t *Transaction) AssetID() string {
	if t.Operation == OperationCreate {
		return t.ID
	}
	return t.Asset.ID
}

// CurrentFileInfo returns the file-info snapshot this transaction
// carries, or ErrMalformedAsset when the record was created outside the
// protocol and lacks one.
func (t *Transaction) CurrentFileInfo() (*FileInfo, error) {
	switch t.Operation {
	case OperationCreate:
		if t.Asset.Data == nil || t.Asset.Data.FileInfo.CID == "" {
			return nil, fmt.Errorf("%w: CREATE record has no file_info", ErrMalformedAsset)
		}
		info := t.Asset.Data.FileInfo
		return &info, nil
	case OperationTransfer:
		if t.Metadata == nil || t.Metadata.FileInfo.CID == "" {
			return nil, fmt.Errorf("%w: TRANSFER record has no file_info", ErrMalformedAsset)
		}
		info := t.Metadata.FileInfo
		return &info, nil
	}
	return nil, fmt.Errorf("%w: unknown operation %q", ErrMalformedAsset, t.Operation)
}

// OwnerOutput returns the output that defines the current owner
func (t *Transaction) OwnerOutput() (*Output, error) {
	if len(t.Outputs) == 0 {
		return nil, fmt.Errorf("%w: transaction has no outputs", ErrMalformedAsset)
	}
	out := t.Outputs[0]
	return &out, nil
}

// SpendEdge returns the "transaction_id:output_index" edge a TRANSFER
// consumes, or empty for CREATE. The ledger enforces uniqueness of this
// edge to reject double spends.
func (t *Transaction) SpendEdge() string {
	if len(t.Inputs) == 0 || t.Inputs[0].Fulfills == nil {
		return ""
	}
	f := t.Inputs[0].Fulfills
	return fmt.Sprintf("%s:%d", f.TransactionID, f.OutputIndex)
}
