package onboarding

import (
	"time"

	"gorm.io/datatypes"
)

// State is the signup progress of one visitor. It survives reloads and is
// filled in step by step.
type State struct {
	VisitorID   string            `json:"visitor_id" gorm:"primaryKey"`
	Variant     string            `json:"variant"`
	Step        string            `json:"step"`
	UserID      string            `json:"user_id,omitempty" gorm:"index"`
	AuthToken   string            `json:"-"`
	Email       string            `json:"email,omitempty"`
	FirstName   string            `json:"first_name,omitempty"`
	LastName    string            `json:"last_name,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	CompanyID   string            `json:"company_id,omitempty"`
	CompanyName string            `json:"company_name,omitempty"`
	CompanyCode string            `json:"company_code,omitempty"`
	Industry    string            `json:"industry,omitempty"`
	CompanySize string            `json:"company_size,omitempty"`
	Role        string            `json:"role,omitempty"`
	Extra       datatypes.JSONMap `json:"extra,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (State) TableName() string {
	return "onboarding_states"
}

// Patch is an incremental update. Nil fields are left untouched.
type Patch struct {
	Variant     *string                `json:"variant,omitempty"`
	Step        *string                `json:"step,omitempty"`
	UserID      *string                `json:"user_id,omitempty"`
	AuthToken   *string                `json:"-"`
	Email       *string                `json:"email,omitempty"`
	FirstName   *string                `json:"first_name,omitempty"`
	LastName    *string                `json:"last_name,omitempty"`
	Phone       *string                `json:"phone,omitempty"`
	CompanyID   *string                `json:"company_id,omitempty"`
	CompanyName *string                `json:"company_name,omitempty"`
	CompanyCode *string                `json:"company_code,omitempty"`
	Industry    *string                `json:"industry,omitempty"`
	CompanySize *string                `json:"company_size,omitempty"`
	Role        *string                `json:"role,omitempty"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// String returns a pointer to s, for building patches
func String(s string) *string {
	return &s
}

// apply copies the set fields of p into st
func (p Patch) apply(st *State) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&st.Variant, p.Variant)
	set(&st.Step, p.Step)
	set(&st.UserID, p.UserID)
	set(&st.AuthToken, p.AuthToken)
	set(&st.Email, p.Email)
	set(&st.FirstName, p.FirstName)
	set(&st.LastName, p.LastName)
	set(&st.Phone, p.Phone)
	set(&st.CompanyID, p.CompanyID)
	set(&st.CompanyName, p.CompanyName)
	set(&st.CompanyCode, p.CompanyCode)
	set(&st.Industry, p.Industry)
	set(&st.CompanySize, p.CompanySize)
	set(&st.Role, p.Role)

	if len(p.Extra) > 0 {
		if st.Extra == nil {
			st.Extra = datatypes.JSONMap{}
		}
		for k, v := range p.Extra {
			st.Extra[k] = v
		}
	}
}
