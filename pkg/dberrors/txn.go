package dberrors

// TxnError carries context about a failed batch commit: the allocated
// transaction id and how far the commit got before failing.
type TxnError struct {
	*baseError
	txnID uint64
	stage string
}

// NewTxnError creates a new transaction-specific error.
func NewTxnError(err error, code ErrorCode, msg string) *TxnError {
	return &TxnError{baseError: NewBaseError(err, code, msg)}
}

// WithTxnID records which transaction id was being committed.
func (te *TxnError) WithTxnID(id uint64) *TxnError {
	te.txnID = id
	return te
}

// WithStage records which commit stage failed ("start", "write", "finish").
func (te *TxnError) WithStage(stage string) *TxnError {
	te.stage = stage
	return te
}

// TxnID returns the transaction id involved in the error.
func (te *TxnError) TxnID() uint64 {
	return te.txnID
}

// Stage returns the commit stage that failed.
func (te *TxnError) Stage() string {
	return te.stage
}
