package model

import (
	"reflect"
	"testing"
	"time"
)

func TestFilterResidentNames(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{"drops blanks", []string{"Maria", "", "José"}, []string{"Maria", "José"}},
		{"trims whitespace", []string{"  Ana  ", "   ", "\t"}, []string{"Ana"}},
		{"all blank", []string{"", " "}, []string{}},
		{"nil input", nil, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterResidentNames(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	u := &User{Name: "Conta", ResidentNames: []string{"", "João"}}
	if got := u.DisplayName(); got != "João" {
		t.Fatalf("got %q, want João", got)
	}

	u.ResidentNames = []string{" ", ""}
	if got := u.DisplayName(); got != "Conta" {
		t.Fatalf("got %q, want fallback to account name", got)
	}
}

func TestVIPActive(t *testing.T) {
	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	later := at.Add(time.Hour)
	earlier := at.Add(-time.Hour)

	cases := []struct {
		name string
		user User
		want bool
	}{
		{"not vip", User{}, false},
		{"permanent vip", User{IsVIP: true}, true},
		{"expiring later", User{IsVIP: true, VIPExpiresAt: &later}, true},
		{"already expired", User{IsVIP: true, VIPExpiresAt: &earlier}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.user.VIPActive(at); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
