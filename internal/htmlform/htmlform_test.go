package htmlform

import (
	"reflect"
	"testing"
)

func TestHiddenFields(t *testing.T) {
	tests := []struct {
		name string
		page string
		want map[string]string
	}{
		{
			name: "login form with token",
			page: `<html><body><form action="/index.php" method="post">
				<input type="text" name="username" />
				<input type="password" name="password" />
				<input type="hidden" name="option" value="com_users" />
				<input type="hidden" name="task" value="user.login" />
				<input type="hidden" name="return" value="aW5kZXgucGhw" />
				<input type="hidden" name="1e2f3a4b5c6d7e8f9a0b1c2d3e4f5a6b" value="1" />
				</form></body></html>`,
			want: map[string]string{
				"option": "com_users",
				"task":   "user.login",
				"return": "aW5kZXgucGhw",
				"1e2f3a4b5c6d7e8f9a0b1c2d3e4f5a6b": "1",
			},
		},
		{
			name: "no hidden inputs",
			page: `<html><body><input type="text" name="q"><p>hello</p></body></html>`,
			want: map[string]string{},
		},
		{
			name: "empty document",
			page: "",
			want: map[string]string{},
		},
		{
			name: "duplicate names last wins",
			page: `<input type="hidden" name="tok" value="first">
				<input type="hidden" name="tok" value="second">`,
			want: map[string]string{"tok": "second"},
		},
		{
			name: "hidden input without name ignored",
			page: `<input type="hidden" value="orphan"><input type="hidden" name="kept" value="v">`,
			want: map[string]string{"kept": "v"},
		},
		{
			name: "missing value decodes as empty string",
			page: `<input type="hidden" name="flag">`,
			want: map[string]string{"flag": ""},
		},
		{
			name: "malformed markup degrades to partial map",
			page: `<input type="hidden" name="ok" value="1"><div <<<broken`,
			want: map[string]string{"ok": "1"},
		},
		{
			name: "attribute order does not matter",
			page: `<input value="x" name="swapped" type="hidden"/>`,
			want: map[string]string{"swapped": "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HiddenFields(tt.page)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("HiddenFields() = %v, want %v", got, tt.want)
			}
		})
	}
}
