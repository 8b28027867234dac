package erp

import "context"

// Column identifiers for the payment-query grid. The first element returned
// by ReadColumn for any of these is the header cell.
const (
	ColumnRequestTimestamp = "SETL_REQST_DTM"
	ColumnCustomerName     = "CUST_NM"
	ColumnAmount           = "SETL_AMT"
	ColumnAcquirerName     = "ACQUER_NM"
	ColumnStatus           = "SETL_STAT_NM"
	ColumnApprovalNumber   = "APPV_NO"
)

// Selectors for the deposit-report upload surface and the payment-query
// reflection tabs.
const (
	SelectorReflectedTab   = "a#tabReflect"
	SelectorUnreflectedTab = "a#tabUnReflect"
	SelectorBulkUpload     = "#webUploader"
	SelectorBulkUploadCell = `div[data-popup-id^="BulkUploadForm"] input.form-control`
)

// Keys issued through PressKey.
const (
	KeyPaste = "Control+v"
	KeySave  = "F8"
)

// Driver is the automation capability surface consumed by the pipeline.
// Every call is blocking; the driver owns its own page-settle waits after
// navigation and input. Errors are returned explicitly so callers can decide
// per step instead of intercepting blanket failures.
type Driver interface {
	// Navigate moves the session to a configured target (URL or menu hash).
	Navigate(ctx context.Context, target string) error
	// ReadColumn returns the ordered cell texts of one grid column,
	// header first.
	ReadColumn(ctx context.Context, columnID string) ([]string, error)
	// Click activates the element addressed by selector.
	Click(ctx context.Context, selector string) error
	// WriteClipboard places text on the automation environment's clipboard.
	WriteClipboard(ctx context.Context, text string) error
	// PressKey injects a keystroke into the focused element.
	PressKey(ctx context.Context, key string) error
	// TypeText types text directly into the focused element.
	TypeText(ctx context.Context, text string) error
	// ReadGridText returns the visible text of the active grid.
	ReadGridText(ctx context.Context) (string, error)
	// ReadResultDialogText returns the text of the newest result dialog.
	// ok is false when no dialog is present.
	ReadResultDialogText(ctx context.Context) (text string, ok bool, err error)
	// DismissDialog closes the topmost dialog or popup surface.
	DismissDialog(ctx context.Context) error
	// Screenshot writes a capture of the current page to path.
	Screenshot(ctx context.Context, path string) error
	// Close tears down the underlying session.
	Close() error
}

// SessionFactory opens an authenticated driver session. Open performs login
// (or session reuse) before returning; a returned Driver is ready to
// navigate.
type SessionFactory interface {
	Open(ctx context.Context) (Driver, error)
}
