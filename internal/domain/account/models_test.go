package account

import (
	"errors"
	"testing"

	"moneyflow/internal/domain/currency"
)

func TestAccount_Location(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		want     string
		wantErr  bool
	}{
		{"empty is UTC", "", "UTC", false},
		{"iana name", "Europe/Kyiv", "Europe/Kyiv", false},
		{"unknown zone", "Mars/Olympus", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{Timezone: tt.timezone}
			loc, err := a.Location()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimezone) {
					t.Errorf("Location() error = %v, want ErrInvalidTimezone", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Location() unexpected error: %v", err)
			}
			if loc.String() != tt.want {
				t.Errorf("Location() = %s, want %s", loc, tt.want)
			}
		})
	}
}

func TestAccount_Meta(t *testing.T) {
	a := &Account{ParserMeta: map[string]string{"delimiter": ";", "encoding": ""}}

	if got := a.Meta("delimiter", ","); got != ";" {
		t.Errorf("Meta(delimiter) = %q, want %q", got, ";")
	}
	if got := a.Meta("encoding", "utf-8"); got != "utf-8" {
		t.Errorf("Meta(encoding) = %q, want default for blank value", got)
	}
	if got := (&Account{}).Meta("sheet", "Sheet1"); got != "Sheet1" {
		t.Errorf("Meta on nil map = %q, want default", got)
	}
}

func TestAccount_Validate(t *testing.T) {
	valid := func() Account {
		return Account{ID: "acc-1", FamilyID: "fam-1", Currency: "USD", BankFormat: FormatDelimited}
	}

	tests := []struct {
		name    string
		mutate  func(*Account)
		wantErr bool
		errType error
	}{
		{"valid", func(*Account) {}, false, nil},
		{"missing ID", func(a *Account) { a.ID = "" }, true, nil},
		{"missing format", func(a *Account) { a.BankFormat = "" }, true, nil},
		{"lowercase currency", func(a *Account) { a.Currency = "usd" }, true, currency.ErrInvalidCurrency},
		{"unknown currency", func(a *Account) { a.Currency = "XYZ" }, true, currency.ErrInvalidCurrency},
		{"bad timezone", func(a *Account) { a.Timezone = "Nowhere/Town" }, true, ErrInvalidTimezone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid()
			tt.mutate(&a)
			err := a.Validate()
			if tt.wantErr {
				if err == nil {
					t.Error("Validate() expected error, got nil")
				}
				if tt.errType != nil && !errors.Is(err, tt.errType) {
					t.Errorf("Validate() error = %v, want %v", err, tt.errType)
				}
			} else if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}
