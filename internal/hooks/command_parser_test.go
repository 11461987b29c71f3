package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTokens(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{
			name:    "splits on whitespace",
			command: "git push  origin\tmain",
			want:    []string{"git", "push", "origin", "main"},
		},
		{
			name:    "keeps double quoted spaces",
			command: `git commit -m "fix the bug"`,
			want:    []string{"git", "commit", "-m", "fix the bug"},
		},
		{
			name:    "keeps single quoted spaces",
			command: `echo 'a b' c`,
			want:    []string{"echo", "a b", "c"},
		},
		{
			name:    "nested quotes are literal",
			command: `echo "it's" '"x"'`,
			want:    []string{"echo", "it's", `"x"`},
		},
		{
			name:    "empty quoted argument is kept",
			command: `printf ""`,
			want:    []string{"printf", ""},
		},
		{
			name:    "empty command",
			command: "   ",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTokens(tt.command))
		})
	}
}

func TestCommandFacts(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		wantName string
		wantArgs []string
	}{
		{
			name:     "simple command",
			command:  "git push --force origin main",
			wantName: "git",
			wantArgs: []string{"push", "--force", "origin", "main"},
		},
		{
			name:     "no arguments",
			command:  "ls",
			wantName: "ls",
			wantArgs: []string{},
		},
		{
			name:     "skips leading assignments",
			command:  "CI=1 FOO_2=bar npm test",
			wantName: "npm",
			wantArgs: []string{"test"},
		},
		{
			name:     "stops at &&",
			command:  "cd repo && rm -rf build",
			wantName: "cd",
			wantArgs: []string{"repo"},
		},
		{
			name:     "stops at pipe",
			command:  "cat file | grep x",
			wantName: "cat",
			wantArgs: []string{"file"},
		},
		{
			name:     "separator inside quotes is literal",
			command:  `echo "a; b | c" ; rm x`,
			wantName: "echo",
			wantArgs: []string{"a; b | c"},
		},
		{
			name:     "single ampersand does not split",
			command:  "sleep 1 & echo done",
			wantName: "sleep",
			wantArgs: []string{"1", "&", "echo", "done"},
		},
		{
			name:     "equals in argument is not an assignment",
			command:  "--opt=1 run",
			wantName: "--opt=1",
			wantArgs: []string{"run"},
		},
		{
			name:     "only assignments",
			command:  "A=1 B=2",
			wantName: "",
			wantArgs: []string{},
		},
		{
			name:     "empty command",
			command:  "",
			wantName: "",
			wantArgs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotName, gotArgs := commandFacts(tt.command)
			assert.Equal(t, tt.wantName, gotName)
			assert.Equal(t, tt.wantArgs, gotArgs)
		})
	}
}
