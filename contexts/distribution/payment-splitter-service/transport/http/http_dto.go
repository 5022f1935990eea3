package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateSplitterRequest struct {
	Name     string   `json:"name"`
	Payees   []string `json:"payees,omitempty"`
	Projects []uint64 `json:"projects,omitempty"`
	Shares   []uint64 `json:"shares"`
}

type ReceivePaymentRequest struct {
	Amount uint64 `json:"amount"`
}

type DistributeRequest struct {
	Token     string `json:"token,omitempty"`
	Payee     string `json:"payee,omitempty"`
	ProjectID uint64 `json:"project_id,omitempty"`
	Memo      string `json:"memo,omitempty"`
}

type AddPayeeRequest struct {
	Address    string `json:"address,omitempty"`
	ProjectID  uint64 `json:"project_id,omitempty"`
	ShareUnits uint64 `json:"share_units"`
}

type PayeeDTO struct {
	Address    string `json:"address,omitempty"`
	ProjectID  uint64 `json:"project_id,omitempty"`
	ShareUnits uint64 `json:"share_units"`
}

type SplitterDTO struct {
	Name      string     `json:"name"`
	Owner     string     `json:"owner"`
	Payees    []PayeeDTO `json:"payees"`
	CreatedAt string     `json:"created_at"`
}

type GetSplitterResponse struct {
	Splitter SplitterDTO `json:"splitter"`
}

type PendingResponse struct {
	Pending uint64 `json:"pending"`
}

type DistributeResponse struct {
	Amount uint64 `json:"amount"`
}
