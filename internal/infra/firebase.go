// README: Staff token verification through the Firebase Admin SDK.
package infra

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// TenantClaim is the custom claim the back-office sets when it mints staff
// tokens. Reports and ETAs are scoped to it.
const TenantClaim = "tenant_id"

// StaffToken is a verified staff identity.
type StaffToken struct {
	UID    string
	Claims map[string]interface{}
}

// TenantID is "" for a nil token or one without a string TenantClaim.
func (t *StaffToken) TenantID() string {
	if t == nil {
		return ""
	}
	v, _ := t.Claims[TenantClaim].(string)
	return v
}

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*StaffToken, error)
}

type staffVerifier struct {
	auth *auth.Client
}

// NewFirebaseVerifier verifies staff ID tokens issued for projectID. An empty
// credentialsFile falls back to application-default credentials.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (TokenVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app for %q: %w", projectID, err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init staff token verifier: %w", err)
	}
	return &staffVerifier{auth: client}, nil
}

func (v *staffVerifier) VerifyIDToken(ctx context.Context, idToken string) (*StaffToken, error) {
	token, err := v.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("verify staff token: %w", err)
	}
	return &StaffToken{UID: token.UID, Claims: token.Claims}, nil
}
