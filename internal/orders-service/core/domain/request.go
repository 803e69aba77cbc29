package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PlaceOrderRequest is the body accepted by POST /orders.
type PlaceOrderRequest struct {
	TradingSymbol   string          `json:"tradingsymbol" validate:"required"`
	Quantity        int             `json:"quantity" validate:"gt=0"`
	OrderType       OrderType       `json:"order_type" validate:"required,oneof=MARKET LIMIT SL SL-M"`
	Price           *float64        `json:"price" validate:"omitnil,gt=0"`
	TriggerPrice    *float64        `json:"trigger_price" validate:"omitnil,gt=0"`
	TransactionType TransactionType `json:"transaction_type,omitempty" validate:"omitempty,oneof=BUY SELL"`
	Product         string          `json:"product,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the struct tags first and then the rules that depend on the
// order type. Every failing field is reported, not only the first one.
func (r *PlaceOrderRequest) Validate() error {
	var errs ValidationErrors

	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("domain: validate order: %w", err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, fromFieldError("body", fe))
		}
	}

	if r.OrderType.RequiresPrice() && r.Price == nil && !hasField(errs, "price") {
		errs = append(errs, ValidationError{
			Loc:  []string{"body", "price"},
			Msg:  fmt.Sprintf("Field required for %s orders", r.OrderType),
			Type: "missing",
		})
	}
	if r.OrderType.RequiresTrigger() && r.TriggerPrice == nil && !hasField(errs, "trigger_price") {
		errs = append(errs, ValidationError{
			Loc:  []string{"body", "trigger_price"},
			Msg:  fmt.Sprintf("Field required for %s orders", r.OrderType),
			Type: "missing",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Normalize fills defaults after a successful Validate.
func (r *PlaceOrderRequest) Normalize() {
	r.TradingSymbol = strings.ToUpper(strings.TrimSpace(r.TradingSymbol))
	if r.TransactionType == "" {
		r.TransactionType = TransactionBuy
	}
	if r.Product == "" {
		r.Product = "CNC"
	}
}

// ValidateQuery checks the routing parameters shared by every /orders call.
// known is the list of broker names the service can route to.
func ValidateQuery(broker, userID string, known []string) error {
	var errs ValidationErrors
	switch {
	case broker == "":
		errs = append(errs, ValidationError{Loc: []string{"query", "broker"}, Msg: "Field required", Type: "missing"})
	case !contains(known, broker):
		errs = append(errs, ValidationError{
			Loc:  []string{"query", "broker"},
			Msg:  "Input should be " + quoteList(known),
			Type: "enum",
		})
	}
	if strings.TrimSpace(userID) == "" {
		errs = append(errs, ValidationError{Loc: []string{"query", "user_id"}, Msg: "Field required", Type: "missing"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func fromFieldError(source string, fe validator.FieldError) ValidationError {
	loc := []string{source, fe.Field()}
	switch fe.Tag() {
	case "required":
		return ValidationError{Loc: loc, Msg: "Field required", Type: "missing"}
	case "gt":
		return ValidationError{Loc: loc, Msg: "Input should be greater than " + fe.Param(), Type: "greater_than"}
	case "oneof":
		return ValidationError{Loc: loc, Msg: "Input should be " + quoteList(strings.Fields(fe.Param())), Type: "enum"}
	default:
		return ValidationError{Loc: loc, Msg: fmt.Sprintf("failed on the %q rule", fe.Tag()), Type: fe.Tag()}
	}
}

func hasField(errs ValidationErrors, field string) bool {
	for _, e := range errs {
		if len(e.Loc) > 1 && e.Loc[len(e.Loc)-1] == field {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	if len(quoted) < 2 {
		return strings.Join(quoted, "")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}
