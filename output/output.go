// Package output renders accepted keys and persists them to disk.
package output

import (
	"bytes"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TylerBrock/colorjson"
	"golang.org/x/crypto/ssh"
	"gopkg.in/yaml.v3"

	"github.com/danielewood/vanitycrx/keygen"
)

// Format selects how a Record is rendered.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("%w %q (want text, json or yaml)", ErrUnknownFormat, s)
}

// Record is the printable form of a keygen.Result.
type Record struct {
	AppID          string  `json:"app_id" yaml:"app_id"`
	File           string  `json:"file,omitempty" yaml:"file,omitempty"`
	PrivateKey     string  `json:"private_key,omitempty" yaml:"private_key,omitempty"`
	PublicKey      string  `json:"public_key" yaml:"public_key"`
	SSHFingerprint string  `json:"ssh_fingerprint,omitempty" yaml:"ssh_fingerprint,omitempty"`
	Attempts       int64   `json:"attempts" yaml:"attempts"`
	Elapsed        string  `json:"elapsed" yaml:"elapsed"`
	Rate           float64 `json:"rate" yaml:"rate"`
}

// NewRecord builds a Record from r. The private key is included only when
// withPrivateKey is set.
func NewRecord(r keygen.Result, withPrivateKey bool) Record {
	rec := Record{
		AppID:          r.ID,
		PublicKey:      r.PublicKeyExcerpt,
		SSHFingerprint: sshFingerprint(r.KeyPair.PublicKeyDER),
		Attempts:       r.Attempts,
		Elapsed:        r.Elapsed.Round(time.Millisecond).String(),
	}
	if secs := r.Elapsed.Seconds(); secs > 0 {
		rec.Rate = float64(int64(float64(r.Attempts)/secs*100)) / 100
	}
	if withPrivateKey {
		rec.PrivateKey = string(r.KeyPair.PrivateKeyPEM)
	}
	return rec
}

// sshFingerprint returns the OpenSSH SHA256 fingerprint of a DER public key,
// or "" when der does not hold a key OpenSSH can represent.
func sshFingerprint(der []byte) string {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return ""
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return ""
	}
	return ssh.FingerprintSHA256(sshPub)
}

// Render writes rec to w in format f. color enables ANSI colors for JSON.
func Render(w io.Writer, rec Record, f Format, color bool) error {
	var out []byte
	var err error
	switch f {
	case FormatText:
		out = renderText(rec)
	case FormatJSON:
		out, err = renderJSON(rec, color)
	case FormatYAML:
		out, err = renderYAML(rec)
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", f, err)
	}
	_, err = w.Write(out)
	return err
}

func renderText(rec Record) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "--- %s ---\n", rec.AppID)
	if rec.PrivateKey != "" {
		b.WriteString(rec.PrivateKey)
	}
	if rec.File != "" {
		fmt.Fprintf(&b, "Private key written to %s\n", rec.File)
	}
	fmt.Fprintf(&b, "%s\n", rec.PublicKey)
	if rec.SSHFingerprint != "" {
		fmt.Fprintf(&b, "%s\n", rec.SSHFingerprint)
	}
	fmt.Fprintf(&b, "Found after %d attempts in %s (%.2f attempts/s)\n", rec.Attempts, rec.Elapsed, rec.Rate)
	return b.Bytes()
}

func renderJSON(rec Record, color bool) ([]byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}

	formatter := colorjson.NewFormatter()
	formatter.Indent = 2
	formatter.DisabledColor = !color
	out, err := formatter.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func renderYAML(rec Record) ([]byte, error) {
	out, err := yaml.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append([]byte("---\n"), out...), nil
}

// WriteKey writes the private key of r to <dir>/<id>.pem with mode 0600 and
// returns the path. An existing file is never overwritten.
func WriteKey(dir string, r keygen.Result) (string, error) {
	path := filepath.Join(dir, r.ID+".pem")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("write private key: %w", err)
	}
	if _, err := f.Write(r.KeyPair.PrivateKeyPEM); err != nil {
		f.Close()
		return "", fmt.Errorf("write private key: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write private key: %w", err)
	}
	return path, nil
}
