package model

// PoolSnapshot is the persisted release state of one pool.
type PoolSnapshot struct {
	PoolID    string   `json:"pool_id"`
	Key       PoolKey  `json:"key"`
	Schedule  Schedule `json:"schedule"`
	Progress  Progress `json:"progress"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}
