package loan

import (
	"encoding/json"
	"time"
)

// Loan is the persisted record, one row per external (processor) loan id.
// Financial fields are pointers: nil means "never seen", and a sync must not
// reset a known value back to nil.
type Loan struct {
	ID     uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID string `gorm:"size:64;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	UID    string `gorm:"size:128;index:idx_loans_uid" json:"uid"`

	Phase  Phase   `gorm:"size:32;default:'DRAFT'" json:"phase"`
	Status *string `gorm:"size:64" json:"status"`

	// Requested terms captured at creation, stored as raw processor JSON.
	DepositTerms json.RawMessage `gorm:"type:json" json:"deposit_terms,omitempty"`
	BorrowTerms  json.RawMessage `gorm:"type:json" json:"borrow_terms,omitempty"`

	// Derived financial fields, each updated opportunistically from syncs.
	LiquidationPrice *float64 `gorm:"type:decimal(24,8)" json:"liquidation_price"`
	InterestPercent  *float64 `gorm:"type:decimal(10,4)" json:"interest_percent"`
	MonthlyInterest  *float64 `gorm:"type:decimal(24,8)" json:"monthly_interest"`
	CurrentRate      *float64 `gorm:"type:decimal(24,8)" json:"current_rate"`
	TxnHash          *string  `gorm:"size:128" json:"txn_hash"`
	FullRepayment    *string  `gorm:"size:64" json:"full_repayment"`

	// Processor-derived sub-record (the "coinrabbit" block).
	CRLastSyncedAt    *time.Time `gorm:"column:cr_last_synced_at" json:"cr_last_synced_at"`
	CRStatus          *string    `gorm:"column:cr_status;size:64" json:"cr_status"`
	CRDepositAddress  *string    `gorm:"column:cr_deposit_address;size:128" json:"cr_deposit_address"`
	CRDepositTxStatus *string    `gorm:"column:cr_deposit_tx_status;size:64" json:"cr_deposit_tx_status"`
	CRCurrentZone     *int       `gorm:"column:cr_current_zone" json:"cr_current_zone"`

	// Set once payout is confirmed.
	ConfirmPayoutAddress *string    `gorm:"size:128" json:"confirm_payout_address"`
	ConfirmedAt          *time.Time `json:"confirmed_at"`

	// UI metadata (logos/codes), passthrough written on confirm.
	UIMeta json.RawMessage `gorm:"type:json" json:"ui_meta,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Event is an append-only audit log entry. Rows are never updated or deleted.
type Event struct {
	ID      uint64          `gorm:"primaryKey;column:id" json:"-"`
	EventID string          `gorm:"size:40;uniqueIndex:ux_loan_events_event_id" json:"event_id"`
	LoanID  string          `gorm:"size:64;index:idx_loan_events_loan_id" json:"loan_id"`
	Type    string          `gorm:"size:32" json:"type"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `gorm:"type:json" json:"payload,omitempty"`
	Raw     json.RawMessage `gorm:"type:json" json:"raw,omitempty"`
	Mode    string          `gorm:"size:16" json:"mode"`
}

func (Event) TableName() string { return "loan_events" }

// Patch is the merge write produced by a reconcile pass. Only the listed
// columns are written; everything else on the row is untouched.
type Patch struct {
	Phase  Phase
	Status *string

	LiquidationPrice *float64
	InterestPercent  *float64
	MonthlyInterest  *float64
	CurrentRate      *float64
	TxnHash          *string
	FullRepayment    *string

	CRLastSyncedAt    time.Time
	CRStatus          *string
	CRDepositTxStatus *string
	CRCurrentZone     *int

	UpdatedAt time.Time
}

// ConfirmPatch is the merge write applied after a successful confirm call.
type ConfirmPatch struct {
	Phase  Phase
	Status *string

	CRLastSyncedAt   time.Time
	CRStatus         *string
	CRDepositAddress *string

	PayoutAddress string
	ConfirmedAt   time.Time

	UIMeta json.RawMessage

	UpdatedAt time.Time
}
