// Package jwt signs and verifies the RS256 access tokens presented to the
// media CMS API.
//
// Tokens are issued by the identity provider; the API only needs the public
// key. A service built with a private key can also mint tokens, which the
// mediactl token command uses for local development:
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "keys/private.pem",
//	    Issuer:         "mediacms",
//	    ExpirationMins: 60,
//	})
//	token, err := svc.Sign(jwt.Claims{UserID: "app_user:1", Role: jwt.RoleSuperuser})
//
// Validate accepts RS256 only, requires an exp claim and checks the issuer
// when one is configured. Failures map to ErrTokenExpired,
// ErrTokenNotYetValid, ErrInvalidSignature or ErrInvalidToken.
package jwt
