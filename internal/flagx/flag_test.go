package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

var serverFlags = []string{"-a", "-d", "-l", "-f"}

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "config layer skips server flags",
			args:    []string{"-c", "ledger.yaml", "-a", ":3200", "-f", "1"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-c", "ledger.yaml"},
		},
		{
			name:    "server layer skips config flag",
			args:    []string{"-config=ledger.yaml", "-d", "postgres://db/ledger", "-f", "3"},
			allowed: serverFlags,
			want:    []string{"-d", "postgres://db/ledger", "-f", "3"},
		},
		{
			name:    "equals form keeps value verbatim",
			args:    []string{"-l=subscriptions,purchases", "-x=1"},
			allowed: serverFlags,
			want:    []string{"-l=subscriptions,purchases"},
		},
		{
			name:    "dangling flag at end",
			args:    []string{"-a", ":3200", "-d"},
			allowed: serverFlags,
			want:    []string{"-a", ":3200", "-d"},
		},
		{
			name:    "value starting with dash is not consumed",
			args:    []string{"-f", "-1"},
			allowed: serverFlags,
			want:    []string{"-f"},
		},
		{
			name:    "positional arguments dropped",
			args:    []string{"reconcile", "-a", ":3200", "extra"},
			allowed: serverFlags,
			want:    []string{"-a", ":3200"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-a", ":3200"},
			allowed: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	cases := map[string]struct {
		args []string
		want string
	}{
		"short":           {[]string{"gophledger", "-c", "/etc/ledger.json"}, "/etc/ledger.json"},
		"long equals":     {[]string{"gophledger", "-a", ":3200", "-config=/etc/ledger.yaml"}, "/etc/ledger.yaml"},
		"absent":          {[]string{"gophledger", "-d", "postgres://db/ledger"}, ""},
		"later flag wins": {[]string{"gophledger", "-c", "a.yaml", "-config", "b.yaml"}, "b.yaml"},
		"missing value":   {[]string{"gophledger", "-c"}, ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			os.Args = tc.args
			assert.Equal(t, tc.want, ConfigFileFlag())
		})
	}
}
