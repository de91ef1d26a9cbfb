package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// keygenCmd はライセンス署名用のEd25519鍵ペア生成コマンド。
func keygenCmd() *cobra.Command {
	var privateKeyOut string
	var publicKeyOut string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an Ed25519 keypair for license signing",
		RunE: func(cmd *cobra.Command, args []string) error {
			publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return fmt.Errorf("generating keypair: %w", err)
			}

			privateDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
			if err != nil {
				return fmt.Errorf("encoding private key: %w", err)
			}
			publicDER, err := x509.MarshalPKIXPublicKey(publicKey)
			if err != nil {
				return fmt.Errorf("encoding public key: %w", err)
			}

			privatePEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateDER})
			publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})

			if err := writeKeyFile(privateKeyOut, privatePEM, 0o600); err != nil {
				return err
			}
			if err := writeKeyFile(publicKeyOut, publicPEM, 0o644); err != nil {
				return err
			}

			fmt.Printf("Private key written to: %s\n", privateKeyOut)
			fmt.Printf("Public key written to: %s\n", publicKeyOut)
			fmt.Println("Keep the private key secret. Ship only the public key.")
			return nil
		},
	}

	cmd.Flags().StringVar(&privateKeyOut, "private-key-out", "licensing/private_key.pem", "Path to write private key PEM")
	cmd.Flags().StringVar(&publicKeyOut, "public-key-out", "licensing/public_key.pem", "Path to write public key PEM")
	return cmd
}

func writeKeyFile(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
