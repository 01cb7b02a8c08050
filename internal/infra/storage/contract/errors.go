package contract

import "errors"

var (
	// ErrContractNotFound возвращается, когда договор не найден
	ErrContractNotFound = errors.New("contract.repository: contract not found")

	// ErrContractExists возвращается, когда по консультации уже есть договор
	ErrContractExists = errors.New("contract.repository: contract already exists for consultation")

	// ErrStatusNotPending возвращается, когда переход статуса невозможен:
	// подписать или просрочить можно только договор в статусе pending
	ErrStatusNotPending = errors.New("contract.repository: contract is not pending")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("contract.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("contract.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("contract.repository: failed to scan row")
)
