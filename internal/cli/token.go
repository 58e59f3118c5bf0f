package cli

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/forgo/mediacms/api/internal/model"
	"github.com/forgo/mediacms/api/internal/repository"
	"github.com/forgo/mediacms/api/pkg/jwt"
)

// TokenOptions holds flags for the token command
type TokenOptions struct {
	Username string
	UserID   string
	Role     string
	KeyPath  string
	Issuer   string
	ExpMins  int
}

// tokenResult is the JSON output of `token`
type tokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local development",
		Long: `Sign an RS256 access token with the configured private key.

With --user-id the claims are taken from the flags. Otherwise the account
named by --username is looked up in the database and its role is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Username, "username", "u", "admin", "account username")
	cmd.Flags().StringVar(&opts.UserID, "user-id", "", "user id claim; skips the database lookup")
	cmd.Flags().StringVar(&opts.Role, "role", jwt.RoleSuperuser, "role claim when --user-id is set (user|superuser)")
	cmd.Flags().StringVar(&opts.KeyPath, "key", "", "PEM private key (default: jwt.private_key_path)")
	cmd.Flags().StringVar(&opts.Issuer, "issuer", "", "issuer claim (default: jwt.issuer)")
	cmd.Flags().IntVar(&opts.ExpMins, "exp", 60*24*7, "token lifetime in minutes")

	return cmd
}

func runToken(cmd *cobra.Command, rootOpts *RootOptions, opts *TokenOptions) error {
	if opts.ExpMins <= 0 {
		return errors.New("--exp must be positive")
	}

	claims := jwt.Claims{
		UserID:   opts.UserID,
		Username: opts.Username,
		Role:     opts.Role,
	}
	if claims.Role != jwt.RoleUser && claims.Role != jwt.RoleSuperuser {
		return fmt.Errorf("invalid role %q: must be %s or %s", claims.Role, jwt.RoleUser, jwt.RoleSuperuser)
	}

	keyPath, issuer := opts.KeyPath, opts.Issuer
	if keyPath == "" || issuer == "" || opts.UserID == "" {
		cfg, err := rootOpts.loadConfig()
		if err != nil {
			return err
		}
		if keyPath == "" {
			keyPath = cfg.JWT.PrivateKeyPath
		}
		if issuer == "" {
			issuer = cfg.JWT.Issuer
		}

		if opts.UserID == "" {
			db, err := rootOpts.Connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			user, err := repository.NewUserRepository(db).GetByUsername(cmd.Context(), opts.Username)
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("user %q not found", opts.Username)
			}
			if !user.IsActive {
				return fmt.Errorf("user %q is not active", opts.Username)
			}
			claims = claimsForUser(user)
		}
	}

	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: keyPath,
		Issuer:         issuer,
		ExpirationMins: opts.ExpMins,
	})
	if err != nil {
		return fmt.Errorf("create JWT service: %w", err)
	}

	claims.Subject = claims.UserID
	expiresAt := time.Now().Add(time.Duration(opts.ExpMins) * time.Minute)
	claims.ExpiresAt = gojwt.NewNumericDate(expiresAt)

	token, err := jwtService.Sign(claims)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		return writeJSON(out, tokenResult{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   opts.ExpMins * 60,
			UserID:      claims.UserID,
			Username:    claims.Username,
			Role:        claims.Role,
		})
	}

	fmt.Fprintln(out, "Token Generated")
	fmt.Fprintln(out, "===============")
	fmt.Fprintf(out, "User ID:  %s\n", claims.UserID)
	fmt.Fprintf(out, "Username: %s\n", claims.Username)
	fmt.Fprintf(out, "Role:     %s\n", claims.Role)
	fmt.Fprintf(out, "Expires:  %s\n", expiresAt.UTC().Format(time.RFC3339))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Token:")
	fmt.Fprintln(out, token)
	return nil
}

func claimsForUser(user *model.User) jwt.Claims {
	role := jwt.RoleUser
	if user.IsSuperuser() {
		role = jwt.RoleSuperuser
	}
	return jwt.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     role,
	}
}
