package models

import (
	"encoding/json"
	"errors"
)

// Product kinds mirror the single-char DB values:
// 'V' products are for sale, 'C' products are exchangeable for points.
type ProductKind string

const (
	ProductKindSale       ProductKind = "V"
	ProductKindRedeemable ProductKind = "C"
)

func (t ProductKind) IsValid() bool {
	return t == ProductKindSale || t == ProductKindRedeemable
}

func (t *ProductKind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("product kind must be string")
	}
	switch str {
	case "V":
		*t = ProductKindSale
	case "C":
		*t = ProductKindRedeemable
	default:
		return errors.New("invalid product kind")
	}
	return nil
}

type TransactionKind string

const (
	TransactionKindSale       TransactionKind = "Sale"
	TransactionKindRedemption TransactionKind = "Redemption"
)

func (t TransactionKind) IsValid() bool {
	return t == TransactionKindSale || t == TransactionKindRedemption
}

func (t *TransactionKind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("transaction kind must be string")
	}
	switch str {
	case "Sale":
		*t = TransactionKindSale
	case "Redemption":
		*t = TransactionKindRedemption
	default:
		return errors.New("invalid transaction kind")
	}
	return nil
}

// User roles: 'A' admin console, 'S' supplier app, 'O' plant operator.
type UserRole string

const (
	UserRoleAdmin    UserRole = "A"
	UserRoleSupplier UserRole = "S"
	UserRoleOperator UserRole = "O"
)

func (t UserRole) IsValid() bool {
	return t == UserRoleAdmin || t == UserRoleSupplier || t == UserRoleOperator
}

type LoyaltyEventAction string

const (
	LoyaltyEventActionCreate LoyaltyEventAction = "C"
	LoyaltyEventActionUpdate LoyaltyEventAction = "U"
	LoyaltyEventActionDelete LoyaltyEventAction = "D"
)

type LoyaltyReferenceType string

const (
	LoyaltyReferenceTypeContribution LoyaltyReferenceType = "CT"
	LoyaltyReferenceTypeRedemption   LoyaltyReferenceType = "RD"
	LoyaltyReferenceTypeSale         LoyaltyReferenceType = "SL"
)
