package commands

import (
	"github.com/spf13/cobra"

	"tourbook/jwt"
)

func keysCmd() *cobra.Command {
	var (
		bits  int
		force bool
	)

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Generate the RSA key pair that signs session tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := jwt.WriteKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath, bits, force); err != nil {
				return err
			}
			log.Info("key pair written",
				"private", cfg.JWT.PrivateKeyPath,
				"public", cfg.JWT.PublicKeyPath,
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&bits, "bits", 2048, "RSA key size")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing key files")
	return cmd
}
