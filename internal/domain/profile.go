package domain

import "fmt"

type CustomerType string

const (
	CustomerTypeRegular       CustomerType = "REGULAR"
	CustomerTypeFrequentFlyer CustomerType = "FREQUENT_FLYER"
)

type MembershipLevel string

const (
	MembershipNone     MembershipLevel = "NONE"
	MembershipSilver   MembershipLevel = "SILVER"
	MembershipGold     MembershipLevel = "GOLD"
	MembershipPlatinum MembershipLevel = "PLATINUM"
)

// Profile is the user as returned at login. It is persisted verbatim and
// stays unchanged until the next login or logout.
type Profile struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	PhoneNumber     *string         `json:"phoneNumber"`
	CustomerType    CustomerType    `json:"customerType"`
	MembershipLevel MembershipLevel `json:"membershipLevel"`
	MilesFlown      int             `json:"milesFlown"`
	DiscountPercent int             `json:"discountPercent"`
}

func (p Profile) IsFrequentFlyer() bool {
	return p.CustomerType == CustomerTypeFrequentFlyer
}

func (p Profile) DiscountText() string {
	if p.DiscountPercent > 0 {
		return fmt.Sprintf("%d%% off", p.DiscountPercent)
	}
	return "No discount"
}

// Summary is the one-line status shown under the welcome banner.
func (p Profile) Summary() string {
	if p.IsFrequentFlyer() {
		return fmt.Sprintf("%s Member • %d%% discount", p.MembershipLevel, p.DiscountPercent)
	}
	return "Regular Customer"
}

type LoginResult struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

type RegisterRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	PhoneNumber *string `json:"phoneNumber"`
}

type FrequentFlyerRegisterRequest struct {
	RegisterRequest
	InitialMiles int `json:"initialMiles"`
}
