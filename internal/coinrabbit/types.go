package coinrabbit

import "encoding/json"

// Payload is the top-level body of every processor response. Depending on the
// endpoint the snapshot sits at .response or .data.response; Snapshot() hides
// that. Raw keeps the undecoded body for the audit log.
type Payload struct {
	ID       string    `json:"id"`
	Message  string    `json:"message"`
	ErrorMsg string    `json:"error"`
	Response *Snapshot `json:"response"`
	Data     *struct {
		Response *Snapshot `json:"response"`
	} `json:"data"`

	Raw json.RawMessage `json:"-"`
}

// Snapshot returns the loan snapshot wherever the endpoint nested it, or nil.
func (p *Payload) Snapshot() *Snapshot {
	if p == nil {
		return nil
	}
	if p.Response != nil {
		return p.Response
	}
	if p.Data != nil {
		return p.Data.Response
	}
	return nil
}

// Snapshot is a point-in-time description of a loan on the processor side.
// Every field is optional; access goes through the nil-safe methods below so
// the "the API might omit X" knowledge stays in this package.
type Snapshot struct {
	ID        string `json:"id"`
	LoanIDAlt string `json:"loan_id"`
	Status    string `json:"status"`

	CurrentZone      *int     `json:"current_zone"`
	LiquidationPrice *float64 `json:"liquidation_price"`
	InterestPercent  *float64 `json:"interest_percent"`

	InterestAmounts *InterestAmounts `json:"interest_amounts"`
	Deposit         *DepositState    `json:"deposit"`
	Loan            *LoanState       `json:"loan"`
	Repayment       *RepaymentState  `json:"repayment"`

	// Some endpoints return a bare {address, extraId} pair.
	Address string  `json:"address"`
	ExtraID *string `json:"extraId"`
}

type InterestAmounts struct {
	Month *float64 `json:"month"`
}

type DepositState struct {
	Active            *bool    `json:"active"`
	SendAddress       string   `json:"send_address"`
	TransactionStatus string   `json:"transaction_status"`
	TransactionHash   string   `json:"transaction_hash"`
	PayinTx           *Tx      `json:"payin_tx"`
	USDTRate          *float64 `json:"usdt_rate"`
	Rate              *float64 `json:"rate"`
	ExpectedAmount    string   `json:"expected_amount"`
	Amount            string   `json:"amount"`
}

type LoanState struct {
	ID       string `json:"id"`
	PayoutTx *Tx    `json:"payout_tx"`
}

type RepaymentState struct {
	Active            *bool   `json:"active"`
	TransactionStatus string  `json:"transaction_status"`
	TransactionHash   string  `json:"transaction_hash"`
	AmountToRepayment string  `json:"amount_to_repayment"`
	TotalAmount       *string `json:"total_amount"`
	PayinTxs          []Tx    `json:"payin_txs"`
}

type Tx struct {
	Hash string `json:"hash"`
}

// ExtractLoanID finds the external loan id wherever a create/confirm response
// put it: id, then loan_id, then loan.id.
func (s *Snapshot) ExtractLoanID() string {
	if s == nil {
		return ""
	}
	if s.ID != "" {
		return s.ID
	}
	if s.LoanIDAlt != "" {
		return s.LoanIDAlt
	}
	if s.Loan != nil {
		return s.Loan.ID
	}
	return ""
}

func (s *Snapshot) RawStatus() string {
	if s == nil {
		return ""
	}
	return s.Status
}

func (s *Snapshot) DepositTxStatus() string {
	if s == nil || s.Deposit == nil {
		return ""
	}
	return s.Deposit.TransactionStatus
}

// DepositActive is strict: only an explicit true counts.
func (s *Snapshot) DepositActive() bool {
	if s == nil || s.Deposit == nil || s.Deposit.Active == nil {
		return false
	}
	return *s.Deposit.Active
}

// DepositAddress prefers deposit.send_address, falling back to the bare
// address form some endpoints use.
func (s *Snapshot) DepositAddress() string {
	if s == nil {
		return ""
	}
	if s.Deposit != nil && s.Deposit.SendAddress != "" {
		return s.Deposit.SendAddress
	}
	return s.Address
}

// TxnHash: deposit.transaction_hash, else deposit.payin_tx.hash.
func (s *Snapshot) TxnHash() *string {
	if s == nil || s.Deposit == nil {
		return nil
	}
	if s.Deposit.TransactionHash != "" {
		h := s.Deposit.TransactionHash
		return &h
	}
	if s.Deposit.PayinTx != nil && s.Deposit.PayinTx.Hash != "" {
		h := s.Deposit.PayinTx.Hash
		return &h
	}
	return nil
}

// CurrentRate: deposit.usdt_rate, else deposit.rate.
func (s *Snapshot) CurrentRate() *float64 {
	if s == nil || s.Deposit == nil {
		return nil
	}
	if s.Deposit.USDTRate != nil {
		return s.Deposit.USDTRate
	}
	return s.Deposit.Rate
}

func (s *Snapshot) MonthlyInterest() *float64 {
	if s == nil || s.InterestAmounts == nil {
		return nil
	}
	return s.InterestAmounts.Month
}

func (s *Snapshot) FullRepayment() *string {
	if s == nil || s.Repayment == nil {
		return nil
	}
	return s.Repayment.TotalAmount
}

func (s *Snapshot) LiquidationPriceValue() *float64 {
	if s == nil {
		return nil
	}
	return s.LiquidationPrice
}

func (s *Snapshot) InterestPercentValue() *float64 {
	if s == nil {
		return nil
	}
	return s.InterestPercent
}

func (s *Snapshot) ZoneValue() *int {
	if s == nil {
		return nil
	}
	return s.CurrentZone
}

// CollateralAmountAtomic is the amount the borrower must send on-chain, in
// the token's smallest unit. Never guessed: empty when the processor did not
// state it.
func (s *Snapshot) CollateralAmountAtomic() string {
	if s == nil || s.Deposit == nil {
		return ""
	}
	if s.Deposit.ExpectedAmount != "" {
		return s.Deposit.ExpectedAmount
	}
	return s.Deposit.Amount
}

// UIMeta carries display metadata (codes, networks, logos) captured at
// confirm time for quick rendering.
type UIMeta struct {
	Borrow     UIMetaSide `json:"borrow"`
	Collateral UIMetaSide `json:"collateral"`
}

type UIMetaSide struct {
	Code    *string `json:"code"`
	Network *string `json:"network"`
	Logo    *string `json:"logo"`
}

type ValidateAddressRequest struct {
	Address string  `json:"address"`
	Code    string  `json:"code"`
	Network string  `json:"network"`
	Tag     *string `json:"tag"`
}

type ValidationResult struct {
	Valid bool `json:"valid"`
}

type CreateLoanRequest struct {
	FromCode    string `json:"from_code"`
	FromNetwork string `json:"from_network"`
	ToCode      string `json:"to_code"`
	ToNetwork   string `json:"to_network"`
	Amount      string `json:"amount"`
	LTV         string `json:"ltv_percent,omitempty"`
}

type PledgeRedemptionRequest struct {
	Address        string  `json:"address"`
	ExtraID        *string `json:"extra_id"`
	ReceiveFrom    string  `json:"receive_from"`
	RepayByNetwork string  `json:"repay_by_network"`
	RepayByCode    string  `json:"repay_by_code"`
}
