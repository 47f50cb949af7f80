package revocation

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

const recordFormatVersionCurrent = 1

var (
	// ErrUnavailable wraps every storage failure.
	ErrUnavailable = errors.New("revocation store unavailable")
	// ErrNotFound is returned by Lookup for an unknown jti.
	ErrNotFound = errors.New("revocation record not found")
	// ErrInvalidRecord is returned for records that cannot be stored.
	ErrInvalidRecord = errors.New("invalid revocation record")
)

// Record is one revoked token id.
type Record struct {
	JTI       string
	AccountID string
	IssuedAt  time.Time
	RevokedAt time.Time
}

func (r Record) validate() error {
	if r.JTI == "" {
		return errors.New("jti is required")
	}
	if r.AccountID == "" {
		return errors.New("account id is required")
	}
	return nil
}

// Encode serialises r without its JTI, which is carried by the key.
func Encode(r Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)

	if len(r.AccountID) > 255 {
		return nil, errors.New("accountID too long")
	}
	buf.WriteByte(byte(len(r.AccountID)))
	buf.WriteString(r.AccountID)

	if err := binary.Write(&buf, binary.BigEndian, r.IssuedAt.Unix()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.RevokedAt.Unix()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a value produced by Encode. JTI is left empty.
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent {
		return nil, errors.New("invalid revocation record version")
	}

	accountLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	accountID := make([]byte, accountLen)
	if _, err := io.ReadFull(reader, accountID); err != nil {
		return nil, err
	}

	var issuedAt, revokedAt int64
	if err := binary.Read(reader, binary.BigEndian, &issuedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &revokedAt); err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in revocation record")
	}

	return &Record{
		AccountID: string(accountID),
		IssuedAt:  time.Unix(issuedAt, 0),
		RevokedAt: time.Unix(revokedAt, 0),
	}, nil
}
