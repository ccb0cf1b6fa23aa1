package stdlib

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sambeau/vaso/pkg/vaso/value"
)

func str(s string) value.Value { return value.Str{Value: s} }
func num(n int64) value.Value  { return value.Int{Value: n} }

func call(t *testing.T, l *Library, qualified string, args ...value.Value) value.Value {
	t.Helper()
	module, function, ok := strings.Cut(qualified, ".")
	if !ok {
		t.Fatalf("bad qualified name %q", qualified)
	}
	return l.Dispatch(module, function, args)
}

func expectValue(t *testing.T, got, want value.Value) {
	t.Helper()
	if !value.Equal(got, want) {
		t.Errorf("got %s, want %s", got.Inspect(), want.Inspect())
	}
}

func expectError(t *testing.T, got value.Value, prefix string) {
	t.Helper()
	s, ok := got.(value.Status)
	if !ok || s.Level != value.Error {
		t.Fatalf("expected error status, got %s", got.Inspect())
	}
	if !strings.HasPrefix(s.Message, prefix) {
		t.Errorf("error message = %q, want prefix %q", s.Message, prefix)
	}
}

func TestDispatch(t *testing.T) {
	l := New(Options{})

	tests := []struct {
		name     string
		module   string
		function string
		args     []value.Value
		want     value.Value
	}{
		{"unknown module", "Nope", "x", nil, value.NewError("Module Nope not found")},
		{"unknown function", "Math", "sqrt", nil, value.NewError("Math.sqrt not found")},
		{"bad arguments", "Math", "abs", []value.Value{str("x")}, value.NewError("Math.abs needs (Int)")},
		{"missing arguments", "Math", "max", []value.Value{num(1)}, value.NewError("Math.max needs (Int, Int)")},
		{"error argument short-circuits", "Math", "abs", []value.Value{value.NewError("boom")}, value.NewError("boom")},
		{"error argument before module lookup", "Nope", "x", []value.Value{num(1), value.NewError("first")}, value.NewError("first")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectValue(t, l.Dispatch(tt.module, tt.function, tt.args), tt.want)
		})
	}
}

func TestFunctions(t *testing.T) {
	names := Functions()
	for _, want := range []string{"File.read", "Math.random", "Time.now", "Sys.exec", "Db.query", "Mail.send"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Functions() missing %s", want)
		}
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("Functions() not sorted: %s before %s", names[i-1], names[i])
		}
	}
}

func TestMath(t *testing.T) {
	l := New(Options{})

	expectValue(t, call(t, l, "Math.abs", num(-7)), num(7))
	expectValue(t, call(t, l, "Math.max", num(3), num(9)), num(9))
	expectValue(t, call(t, l, "Math.min", num(3), num(9)), num(3))

	for i := 0; i < 50; i++ {
		n, ok := call(t, l, "Math.random").(value.Int)
		if !ok || n.Value < 0 || n.Value >= 100 {
			t.Fatalf("Math.random() = %v, want Int in [0, 100)", n)
		}
		n, ok = call(t, l, "Math.random", num(3)).(value.Int)
		if !ok || n.Value < 0 || n.Value >= 3 {
			t.Fatalf("Math.random(3) = %v, want Int in [0, 3)", n)
		}
	}
	expectError(t, call(t, l, "Math.random", num(0)), "Math.random needs")
}

func TestTime(t *testing.T) {
	const ts = 1700000000 // 2023-11-14 22:13:20 UTC, a Tuesday

	tests := []struct {
		locale string
		style  string
		want   string
	}{
		{"en_US", "short", "11/14/23"},
		{"en_US", "medium", "Nov 14, 2023"},
		{"en_US", "long", "November 14, 2023"},
		{"en_US", "full", "Tuesday, November 14, 2023"},
		{"en_US", "2006-01-02 15:04", "2023-11-14 22:13"},
		{"de_DE", "short", "14.11.23"},
		{"de-DE", "full", "Dienstag, 14 November 2023"},
		{"en_GB", "medium", "14 Nov 2023"},
	}

	for _, tt := range tests {
		t.Run(tt.locale+"/"+tt.style, func(t *testing.T) {
			l := New(Options{Locale: tt.locale})
			expectValue(t, call(t, l, "Time.format", num(ts), str(tt.style)), str(tt.want))
		})
	}

	l := New(Options{})
	expectValue(t, call(t, l, "Time.format", num(ts)), str("Nov 14, 2023"))
	expectValue(t, call(t, l, "Time.parse", str("2023-11-14")), num(1699920000))
	expectValue(t, call(t, l, "Time.parse", str("2023-11-14T22:13:20Z")), num(ts))
	expectError(t, call(t, l, "Time.parse", str("not a date")), "Time Error: ")

	// Numeric dates follow the locale's day/month order.
	expectValue(t, call(t, l, "Time.parse", str("02/03/2024")), call(t, l, "Time.parse", str("2024-02-03")))
	gb := New(Options{Locale: "en_GB"})
	expectValue(t, call(t, gb, "Time.parse", str("02/03/2024")), call(t, gb, "Time.parse", str("2024-03-02")))

	if now, ok := call(t, l, "Time.now").(value.Int); !ok || now.Value <= ts {
		t.Errorf("Time.now() = %v", now)
	}
	expectValue(t, call(t, l, "Time.sleep", num(1)), value.ON)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	l := New(Options{})

	expectValue(t, call(t, l, "File.exists", str(path)), value.OFF)
	expectValue(t, call(t, l, "File.write", str(path), str("hello")), value.NewStatus(value.On, "File Written"))
	expectValue(t, call(t, l, "File.exists", str(path)), value.ON)
	expectValue(t, call(t, l, "File.read", str(path)), str("hello"))

	expectError(t, call(t, l, "File.read", str(filepath.Join(dir, "missing.txt"))), "IO Error: ")
	expectError(t, call(t, l, "File.write", str(filepath.Join(dir, "no", "such", "dir.txt")), str("x")), "Write Error: ")

	gz := filepath.Join(dir, "note.txt.gz")
	expectValue(t, call(t, l, "File.writeGz", str(gz), str("compressed text")), value.NewStatus(value.On, "File Written"))
	expectValue(t, call(t, l, "File.readGz", str(gz)), str("compressed text"))
	expectError(t, call(t, l, "File.readGz", str(path)), "Gzip Error: ")

	expectError(t, call(t, l, "File.readPdf", str(path)), "PDF Error: ")
}

func TestFilePolicy(t *testing.T) {
	dir := t.TempDir()
	secret := filepath.Join(dir, "secret")
	if err := os.Mkdir(secret, 0o755); err != nil {
		t.Fatal(err)
	}
	inside := filepath.Join(secret, "key.txt")
	if err := os.WriteFile(inside, []byte("k"), 0o644); err != nil {
		t.Fatal(err)
	}
	outside := filepath.Join(dir, "open.txt")

	tests := []struct {
		name   string
		policy *Policy
		fn     string
		args   []value.Value
		want   string
	}{
		{"restricted read", &Policy{RestrictRead: []string{secret}}, "File.read", []value.Value{str(inside)}, "file read access denied: " + inside},
		{"restricted exists", &Policy{RestrictRead: []string{secret}}, "File.exists", []value.Value{str(inside)}, "file read access denied: "},
		{"no read", &Policy{NoRead: true}, "File.read", []value.Value{str(outside)}, "file read access denied: "},
		{"no write", &Policy{NoWrite: true}, "File.write", []value.Value{str(outside), str("x")}, "file write access denied: " + outside},
		{"restricted write", &Policy{RestrictWrite: []string{secret}}, "File.writeGz", []value.Value{str(inside), str("x")}, "file write access denied: "},
		{"restricted sqlite", &Policy{RestrictWrite: []string{secret}}, "Db.exec", []value.Value{str(filepath.Join(secret, "db.sqlite")), str("SELECT 1")}, "file write access denied: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(Options{Security: tt.policy})
			expectError(t, call(t, l, tt.fn, tt.args...), tt.want)
		})
	}

	l := New(Options{Security: &Policy{RestrictRead: []string{secret}}})
	expectValue(t, call(t, l, "File.write", str(outside), str("fine")), value.NewStatus(value.On, "File Written"))
	expectValue(t, call(t, l, "File.read", str(outside)), str("fine"))
}

func TestSys(t *testing.T) {
	env := map[string]string{"HOME": "/home/vaso"}
	l := New(Options{
		Args:   []string{"first", "second"},
		Getenv: func(k string) string { return env[k] },
	})

	expectValue(t, call(t, l, "Sys.arg", num(1)), str("second"))
	expectValue(t, call(t, l, "Sys.arg", num(2)), value.NewStatus(value.Unknown, "No Arg"))
	expectValue(t, call(t, l, "Sys.env", str("HOME")), str("/home/vaso"))
	expectValue(t, call(t, l, "Sys.env", str("NOPE")), value.NewStatus(value.Unknown, "Env 'NOPE' not set"))

	if goos, ok := call(t, l, "Sys.os").(value.Str); !ok || goos.Value == "" {
		t.Errorf("Sys.os() = %v", goos)
	}
}

func TestSysExec(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}

	denied := New(Options{})
	expectError(t, call(t, denied, "Sys.exec", str("true")), "execute access denied: ")

	allowed := New(Options{Security: &Policy{AllowExecuteAll: true}})
	expectValue(t, call(t, allowed, "Sys.exec", str("true")), value.ON)
	expectError(t, call(t, allowed, "Sys.exec", str("false")), "CMD Failed")
	expectError(t, call(t, allowed, "Sys.exec", str("no-such-command-vaso")), "Exec Error: ")
}

func TestJSON(t *testing.T) {
	l := New(Options{})
	doc := str(`{"server": {"port": 8080, "name": "api"}, "tags": ["a", "b"], "live": true, "gone": null, "pi": 3.5}`)

	expectValue(t, call(t, l, "Json.parse", str(`{ "a" : [1, 2] }`)), str(`{"a":[1,2]}`))
	expectError(t, call(t, l, "Json.parse", str(`{"a":`)), "JSON Error: ")

	tests := []struct {
		key  string
		want value.Value
	}{
		{"server.port", num(8080)},
		{"server.name", str("api")},
		{"tags", value.List{Elements: []value.Value{str("a"), str("b")}}},
		{"live", value.ON},
		{"gone", value.NewStatus(value.Unknown, "Null")},
		{"pi", str("3.5")},
		{"server", str(`{"name":"api","port":8080}`)},
		{"server.missing", value.NewStatus(value.Unknown, "Field 'server.missing' not found")},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			expectValue(t, call(t, l, "Json.get", doc, str(tt.key)), tt.want)
		})
	}
}

func TestYAML(t *testing.T) {
	l := New(Options{})
	doc := str("server:\n  port: 8080\n  debug: false\nnames: [x, y]\n")

	expectValue(t, call(t, l, "Yaml.get", doc, str("server.port")), num(8080))
	expectValue(t, call(t, l, "Yaml.get", doc, str("server.debug")), value.OFF)
	expectValue(t, call(t, l, "Yaml.get", doc, str("names")), value.List{Elements: []value.Value{str("x"), str("y")}})
	expectValue(t, call(t, l, "Yaml.toJson", str("b: [x, y]\na: 1\n")), str(`{"a":1,"b":["x","y"]}`))
	expectError(t, call(t, l, "Yaml.get", str("a: [1"), str("a")), "YAML Error: ")

	big := str("id: 18446744073709551615\nmax: 9223372036854775807\n")
	expectValue(t, call(t, l, "Yaml.get", big, str("id")), str("18446744073709551615"))
	expectValue(t, call(t, l, "Yaml.get", big, str("max")), num(9223372036854775807))
}

func TestText(t *testing.T) {
	tests := []struct {
		locale string
		fn     string
		arg    value.Value
		want   value.Value
	}{
		{"en_US", "Text.upper", str("hello"), str("HELLO")},
		{"en_US", "Text.lower", str("HeLLo"), str("hello")},
		{"en_US", "Text.title", str("hello world"), str("Hello World")},
		{"en_US", "Text.number", num(1234567), str("1,234,567")},
		{"de_DE", "Text.number", num(1234567), str("1.234.567")},
		{"de_DE", "Text.upper", str("straße"), str("STRASSE")},
		{"en_US", "Md.html", str("# Hi"), str("<h1>Hi</h1>\n")},
		{"en_US", "Html.text", str("<p>Hello   <b>world</b></p><script>alert(1)</script><style>p{}</style>"), str("Hello world")},
	}

	for _, tt := range tests {
		t.Run(tt.locale+"/"+tt.fn, func(t *testing.T) {
			l := New(Options{Locale: tt.locale})
			expectValue(t, call(t, l, tt.fn, tt.arg), tt.want)
		})
	}
}

func TestDB(t *testing.T) {
	path := str(filepath.Join(t.TempDir(), "app.db"))
	l := New(Options{})

	expectValue(t, call(t, l, "Db.exec", path, str("CREATE TABLE users (name TEXT, age INTEGER)")), value.NewStatus(value.On, "0 rows"))
	expectValue(t, call(t, l, "Db.exec", path, str("INSERT INTO users VALUES ('ann', 31), ('bob', 27)")), value.NewStatus(value.On, "2 rows"))

	expectValue(t, call(t, l, "Db.query", path, str("SELECT name FROM users ORDER BY name")),
		value.List{Elements: []value.Value{str("ann"), str("bob")}})
	expectValue(t, call(t, l, "Db.query", path, str("SELECT age FROM users ORDER BY age")),
		value.List{Elements: []value.Value{num(27), num(31)}})
	expectValue(t, call(t, l, "Db.query", path, str("SELECT name FROM users WHERE age > 99")), value.List{})

	expectError(t, call(t, l, "Db.query", path, str("SELECT nope FROM users")), "DB Error: ")
	expectValue(t, call(t, l, "Db.query", str(":memory:"), str("SELECT 1")), value.List{Elements: []value.Value{num(1)}})
}

func TestHash(t *testing.T) {
	l := New(Options{})

	hash, ok := call(t, l, "Hash.password", str("s3cret")).(value.Str)
	if !ok || !strings.HasPrefix(hash.Value, "$2") {
		t.Fatalf("Hash.password() = %v", hash)
	}
	expectValue(t, call(t, l, "Hash.check", hash, str("s3cret")), value.ON)
	expectValue(t, call(t, l, "Hash.check", hash, str("wrong")), value.OFF)
}

func TestSftpURL(t *testing.T) {
	target, err := parseSFTPURL("sftp://deploy:pw@example.com/var/www/index.html")
	if err != nil {
		t.Fatal(err)
	}
	if target.addr != "example.com:22" || target.user != "deploy" || target.password != "pw" || target.path != "/var/www/index.html" {
		t.Errorf("unexpected target %+v", target)
	}

	target, err = parseSFTPURL("sftp://deploy:pw@example.com:2222/f")
	if err != nil || target.addr != "example.com:2222" {
		t.Errorf("port not kept: %+v, %v", target, err)
	}

	l := New(Options{})
	tests := []struct {
		url  string
		want string
	}{
		{"http://example.com/f", "SFTP Error: expected an sftp:// URL"},
		{"sftp://example.com/f", "SFTP Error: URL has no user"},
		{"sftp://deploy@example.com/f", "SFTP Error: URL has no password"},
		{"sftp://deploy:pw@example.com", "SFTP Error: URL has no path"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			expectValue(t, call(t, l, "Sftp.read", str(tt.url)), value.NewError(tt.want))
			expectValue(t, call(t, l, "Sftp.write", str(tt.url), str("x")), value.NewError(tt.want))
		})
	}
}

type fakeProvider struct {
	sent []*Message
}

func (f *fakeProvider) Send(ctx context.Context, msg *Message) (string, error) {
	if err := validateMessage(msg); err != nil {
		return "", err
	}
	f.sent = append(f.sent, msg)
	return "id-1", nil
}

func (f *fakeProvider) Name() string { return "fake" }

func TestMail(t *testing.T) {
	l := New(Options{})
	expectValue(t, call(t, l, "Mail.send", str("a@example.com"), str("Hi"), str("Body")), value.NewError("Mail not configured"))

	bad := New(Options{Mail: MailConfig{Provider: "pigeon"}})
	expectError(t, call(t, bad, "Mail.send", str("a@example.com"), str("Hi"), str("Body")), "Mail Error: invalid mail provider")

	fake := &fakeProvider{}
	sender := New(Options{Mail: MailConfig{From: "app@example.com"}})
	sender.mail = fake
	expectValue(t, call(t, sender, "Mail.send", str("a@example.com"), str("Hi"), str("Body")), value.NewStatus(value.On, "Mail Sent: id-1"))
	if len(fake.sent) != 1 || fake.sent[0].From != "app@example.com" || fake.sent[0].To[0] != "a@example.com" {
		t.Errorf("unexpected message %+v", fake.sent)
	}
	expectError(t, call(t, sender, "Mail.send", str("a@example.com"), str(""), str("Body")), "Mail Error: subject is required")
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     MailConfig
		want    string
		wantErr bool
	}{
		{"empty", MailConfig{}, "", true},
		{"unknown", MailConfig{Provider: "pigeon"}, "", true},
		{"mailgun without domain", MailConfig{Provider: "mailgun", APIKey: "k", From: "a@b.c"}, "", true},
		{"mailgun", MailConfig{Provider: "mailgun", APIKey: "k", Domain: "mg.example.com", From: "a@b.c", Region: "eu"}, "mailgun", false},
		{"resend without key", MailConfig{Provider: "resend", From: "a@b.c"}, "", true},
		{"resend", MailConfig{Provider: "resend", APIKey: "re_k", From: "a@b.c"}, "resend", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := newProvider(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got provider %v", p)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if p.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.want)
			}
		})
	}
}
