package payment

import "context"

// プロバイダ照会の結果
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// 決済インテント作成の結果
type Intent struct {
	//プロバイダ側の参照ID（PaymentAttempt.ProviderRefに保存）
	ProviderRef string
	//フロントが決済UIを起動するためのハンドル
	ClientSecret string
}

// 外部決済プロバイダとの境界
// 成否の判定は必ずQueryStatusの往復で行う。クライアント申告は信用しない
type Gateway interface {
	CreateIntent(ctx context.Context, amount int64, orderRef string) (Intent, error)
	QueryStatus(ctx context.Context, providerRef string) (Status, error)
}
