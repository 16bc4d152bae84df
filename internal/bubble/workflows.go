package bubble

import "context"

// Workflow names exposed by the Bubble app
const (
	WorkflowSignUp        = "signup"
	WorkflowLogin         = "login"
	WorkflowProviderLogin = "provider_login"
	WorkflowUpdateProfile = "update_profile"
	WorkflowCreateCompany = "create_company"
	WorkflowJoinCompany   = "join_company"
	WorkflowSendInvites   = "send_invites"
)

// AuthResult is returned by the sign-up and login workflows
type AuthResult struct {
	UserID  string `json:"user_id"`
	Token   string `json:"token,omitempty"`
	Expires int64  `json:"expires,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProviderLogin struct {
	Provider string `json:"provider"`
	IDToken  string `json:"id_token"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}

type Profile struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

type NewCompany struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Industry string `json:"industry,omitempty"`
	Size     string `json:"size,omitempty"`
}

type Company struct {
	ID   string `json:"company_id"`
	Code string `json:"company_code,omitempty"`
	Name string `json:"company_name,omitempty"`
}

type Invite struct {
	CompanyID string   `json:"company_id"`
	Emails    []string `json:"emails,omitempty"`
	Phones    []string `json:"phones,omitempty"`
}

// InviteResult carries what the invite messages need to mention
type InviteResult struct {
	CompanyName string `json:"company_name"`
	CompanyCode string `json:"company_code"`
}

func (c *Client) SignUp(ctx context.Context, creds Credentials) (*AuthResult, error) {
	var out AuthResult
	if err := c.Call(ctx, WorkflowSignUp, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	var out AuthResult
	if err := c.Call(ctx, WorkflowLogin, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ProviderLogin(ctx context.Context, req ProviderLogin) (*AuthResult, error) {
	var out AuthResult
	if err := c.Call(ctx, WorkflowProviderLogin, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, p Profile) error {
	return c.Call(ctx, WorkflowUpdateProfile, p, nil)
}

func (c *Client) CreateCompany(ctx context.Context, req NewCompany) (*Company, error) {
	var out Company
	if err := c.Call(ctx, WorkflowCreateCompany, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) JoinCompany(ctx context.Context, userID, code string) (*Company, error) {
	payload := map[string]string{"user_id": userID, "company_code": code}
	var out Company
	if err := c.Call(ctx, WorkflowJoinCompany, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RecordInvites(ctx context.Context, inv Invite) (*InviteResult, error) {
	var out InviteResult
	if err := c.Call(ctx, WorkflowSendInvites, inv, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
