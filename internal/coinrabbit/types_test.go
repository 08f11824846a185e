package coinrabbit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload_SnapshotLocation(t *testing.T) {
	var p *Payload
	assert.Nil(t, p.Snapshot(), "nil payload yields nil snapshot")

	top := &Payload{Response: &Snapshot{ID: "cr-1"}}
	require.NotNil(t, top.Snapshot())
	assert.Equal(t, "cr-1", top.Snapshot().ID)

	var nested Payload
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"response":{"id":"cr-2"}}}`), &nested))
	require.NotNil(t, nested.Snapshot())
	assert.Equal(t, "cr-2", nested.Snapshot().ID)

	assert.Nil(t, (&Payload{}).Snapshot())
}

func TestSnapshot_ExtractLoanID(t *testing.T) {
	assert.Equal(t, "", (*Snapshot)(nil).ExtractLoanID())
	assert.Equal(t, "a", (&Snapshot{ID: "a", LoanIDAlt: "b", Loan: &LoanState{ID: "c"}}).ExtractLoanID())
	assert.Equal(t, "b", (&Snapshot{LoanIDAlt: "b", Loan: &LoanState{ID: "c"}}).ExtractLoanID())
	assert.Equal(t, "c", (&Snapshot{Loan: &LoanState{ID: "c"}}).ExtractLoanID())
	assert.Equal(t, "", (&Snapshot{}).ExtractLoanID())
}

func TestSnapshot_DepositAddress(t *testing.T) {
	assert.Equal(t, "", (*Snapshot)(nil).DepositAddress())
	assert.Equal(t, "bc1qsend",
		(&Snapshot{Address: "bc1qbare", Deposit: &DepositState{SendAddress: "bc1qsend"}}).DepositAddress())
	assert.Equal(t, "bc1qbare",
		(&Snapshot{Address: "bc1qbare", Deposit: &DepositState{}}).DepositAddress())
	assert.Equal(t, "bc1qbare", (&Snapshot{Address: "bc1qbare"}).DepositAddress())
}

func TestSnapshot_TxnHash(t *testing.T) {
	assert.Nil(t, (*Snapshot)(nil).TxnHash())
	assert.Nil(t, (&Snapshot{}).TxnHash())
	assert.Nil(t, (&Snapshot{Deposit: &DepositState{}}).TxnHash())

	s := &Snapshot{Deposit: &DepositState{TransactionHash: "0xaaa", PayinTx: &Tx{Hash: "0xbbb"}}}
	require.NotNil(t, s.TxnHash())
	assert.Equal(t, "0xaaa", *s.TxnHash())

	s = &Snapshot{Deposit: &DepositState{PayinTx: &Tx{Hash: "0xbbb"}}}
	require.NotNil(t, s.TxnHash())
	assert.Equal(t, "0xbbb", *s.TxnHash())
}

func TestSnapshot_CurrentRate(t *testing.T) {
	usdt, plain := 60123.4, 59999.0
	s := &Snapshot{Deposit: &DepositState{USDTRate: &usdt, Rate: &plain}}
	require.NotNil(t, s.CurrentRate())
	assert.Equal(t, usdt, *s.CurrentRate())

	s = &Snapshot{Deposit: &DepositState{Rate: &plain}}
	require.NotNil(t, s.CurrentRate())
	assert.Equal(t, plain, *s.CurrentRate())

	assert.Nil(t, (&Snapshot{}).CurrentRate())
}

func TestSnapshot_CollateralAmountAtomic(t *testing.T) {
	assert.Equal(t, "", (*Snapshot)(nil).CollateralAmountAtomic())
	assert.Equal(t, "150",
		(&Snapshot{Deposit: &DepositState{ExpectedAmount: "150", Amount: "149"}}).CollateralAmountAtomic())
	assert.Equal(t, "149",
		(&Snapshot{Deposit: &DepositState{Amount: "149"}}).CollateralAmountAtomic())
	assert.Equal(t, "", (&Snapshot{Deposit: &DepositState{}}).CollateralAmountAtomic())
}

func TestSnapshot_DepositActiveStrict(t *testing.T) {
	tr, fa := true, false
	assert.False(t, (*Snapshot)(nil).DepositActive())
	assert.False(t, (&Snapshot{Deposit: &DepositState{}}).DepositActive())
	assert.False(t, (&Snapshot{Deposit: &DepositState{Active: &fa}}).DepositActive())
	assert.True(t, (&Snapshot{Deposit: &DepositState{Active: &tr}}).DepositActive())
}

func TestSnapshot_FullRepayment(t *testing.T) {
	total := "1050.25"
	assert.Nil(t, (&Snapshot{}).FullRepayment())
	assert.Nil(t, (&Snapshot{Repayment: &RepaymentState{}}).FullRepayment())
	got := (&Snapshot{Repayment: &RepaymentState{TotalAmount: &total}}).FullRepayment()
	require.NotNil(t, got)
	assert.Equal(t, total, *got)
}
