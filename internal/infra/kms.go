package infra

import (
	"context"
	"fmt"

	kms "cloud.google.com/go/kms/apiv1"
	kmspb "cloud.google.com/go/kms/apiv1/kmspb"
)

// KMSSigner はCloud KMSに保管されたEd25519鍵による署名を提供する。
// 秘密鍵はプロセスに入らず、署名操作のみをKMSに委譲する。
type KMSSigner struct {
	client  *kms.KeyManagementClient
	keyName string
}

// NewKMSSigner はキーバージョン名からKMSSignerを生成する。
// keyName は projects/.../cryptoKeyVersions/N 形式。
func NewKMSSigner(ctx context.Context, keyName string) (*KMSSigner, error) {
	if keyName == "" {
		return nil, fmt.Errorf("KMS key name is required")
	}

	client, err := kms.NewKeyManagementClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating KMS client: %w", err)
	}

	return &KMSSigner{
		client:  client,
		keyName: keyName,
	}, nil
}

// Algorithm はアルゴリズム識別子を返す。
func (s *KMSSigner) Algorithm() string { return "ed25519" }

// Sign はペイロード全体をKMSで署名する。Ed25519鍵はダイジェストではなく
// データ本体を受け取る。
func (s *KMSSigner) Sign(ctx context.Context, payload []byte) ([]byte, error) {
	req := &kmspb.AsymmetricSignRequest{
		Name: s.keyName,
		Data: payload,
	}
	resp, err := s.client.AsymmetricSign(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("signing with KMS: %w", err)
	}
	return resp.Signature, nil
}

// PublicKeyPEM は署名鍵に対応する公開鍵PEMを取得する。
func (s *KMSSigner) PublicKeyPEM(ctx context.Context) ([]byte, error) {
	req := &kmspb.GetPublicKeyRequest{
		Name: s.keyName,
	}
	resp, err := s.client.GetPublicKey(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("getting public key from KMS: %w", err)
	}
	return []byte(resp.Pem), nil
}

// Close はKMSクライアントを閉じる。
func (s *KMSSigner) Close() error {
	return s.client.Close()
}
