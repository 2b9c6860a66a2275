package cos

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
)

// ErrInvalidPassword is returned when no password opens an encrypted document.
var ErrInvalidPassword = errors.New("encrypted PDF: invalid password")

// security holds the file key of a document using the standard security
// handler (PDF 32000-1 §7.6.3).
type security struct {
	key []byte
	v   int

	identityStm bool // streams are stored unencrypted
	identityStr bool // strings are stored unencrypted

	encryptID objptr // the /Encrypt dictionary itself is never encrypted
}

func newSecurity(password string, encrypt Obj, id string) (*security, error) {
	hdr := encrypt.data.(dict)
	if hdr["Filter"] != name("Standard") {
		return nil, fmt.Errorf("unsupported PDF: encryption filter %v", objfmt(hdr["Filter"]))
	}
	sec, err := authenticate("", hdr, id)
	if errors.Is(err, ErrInvalidPassword) && password != "" {
		sec, err = authenticate(password, hdr, id)
	}
	return sec, err
}

func authenticate(password string, encrypt dict, id string) (*security, error) {
	n, _ := encrypt["Length"].(int64)
	if n == 0 {
		n = 40
	}
	v, _ := encrypt["V"].(int64)
	r, _ := encrypt["R"].(int64)
	o, _ := encrypt["O"].(string)
	u, _ := encrypt["U"].(string)
	p, _ := encrypt["P"].(int64)
	P := uint32(p)

	if n%8 != 0 || n < 40 || (n > 128 && n != 256) {
		return nil, fmt.Errorf("malformed PDF: %d-bit encryption key", n)
	}
	stmID, strID, ok := cryptFilters(v, encrypt)
	if !ok {
		return nil, fmt.Errorf("unsupported PDF: encryption version V=%d", v)
	}
	if r < 2 || r == 5 || r > 6 {
		return nil, fmt.Errorf("malformed PDF: encryption revision R=%d", r)
	}

	pw := []byte(password)

	if r == 6 {
		ue, _ := encrypt["UE"].(string)
		perms, _ := encrypt["Perms"].(string)
		sec, err := newR6(pw, []byte(u), []byte(ue), []byte(perms))
		if err != nil {
			return nil, err
		}
		sec.identityStm, sec.identityStr = stmID, strID
		return sec, nil
	}

	if len(o) != 32 || len(u) != 32 {
		return nil, fmt.Errorf("malformed PDF: missing O= or U= encryption parameters")
	}

	h := md5.New()
	if len(pw) >= 32 {
		h.Write(pw[:32])
	} else {
		h.Write(pw)
		h.Write(passwordPad[:32-len(pw)])
	}
	h.Write([]byte(o))
	h.Write([]byte{byte(P), byte(P >> 8), byte(P >> 16), byte(P >> 24)})
	h.Write([]byte(id))
	if r >= 4 {
		if meta, ok := encrypt["EncryptMetadata"].(bool); ok && !meta {
			h.Write([]byte{0xff, 0xff, 0xff, 0xff})
		}
	}
	key := h.Sum(nil)

	if r >= 3 {
		for i := 0; i < 50; i++ {
			h.Reset()
			h.Write(key[:n/8])
			key = h.Sum(key[:0])
		}
		key = key[:n/8]
	} else {
		key = key[:40/8]
	}

	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("malformed PDF: invalid RC4 key: %v", err)
	}

	var w []byte
	if r == 2 {
		w = make([]byte, 32)
		copy(w, passwordPad)
		c.XORKeyStream(w, w)
	} else {
		h.Reset()
		h.Write(passwordPad)
		h.Write([]byte(id))
		w = h.Sum(nil)
		c.XORKeyStream(w, w)

		for i := 1; i <= 19; i++ {
			key1 := make([]byte, len(key))
			copy(key1, key)
			for j := range key1 {
				key1[j] ^= byte(i)
			}
			c, _ = rc4.NewCipher(key1)
			c.XORKeyStream(w, w)
		}
	}

	if !bytes.HasPrefix([]byte(u), w) {
		return nil, ErrInvalidPassword
	}
	return &security{key: key, v: int(v), identityStm: stmID, identityStr: strID}, nil
}

var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

func newR6(password, u, ue, perms []byte) (*security, error) {
	if len(password) > 127 {
		password = password[:127]
	}
	if len(u) < 48 || len(ue) < 32 || len(perms) < 16 {
		return nil, fmt.Errorf("malformed PDF: short AESV3 parameters")
	}
	u = u[:48]

	if !bytes.Equal(hashR6(password, u[32:40]), u[:32]) {
		return nil, ErrInvalidPassword
	}

	intermediate := hashR6(password, u[40:48])
	b, err := aes.NewCipher(intermediate)
	if err != nil {
		return nil, err
	}
	var iv [16]byte
	cbc := cipher.NewCBCDecrypter(b, iv[:])
	key := make([]byte, 32)
	cbc.CryptBlocks(key, ue[:32])

	dec := make([]byte, 16)
	b, err = aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	b.Decrypt(dec, perms[:16])
	if string(dec[9:12]) != "adb" {
		return nil, errors.New("malformed PDF: /Perms did not validate")
	}
	return &security{key: key, v: 5}, nil
}

// hashR6 implements Algorithm 2.B of ISO 32000-2.
func hashR6(p, salt []byte) []byte {
	h := sha256.New()
	h.Write(p)
	h.Write(salt)
	k := h.Sum(nil)

	for i := 1; ; i++ {
		k1 := bytes.Repeat(append(append([]byte{}, p...), k...), 64)
		b, err := aes.NewCipher(k[:16])
		if err != nil {
			panic(err)
		}
		enc := cipher.NewCBCEncrypter(b, k[16:32])
		e := make([]byte, len(k1))
		enc.CryptBlocks(e, k1)

		var mod int
		for i := 0; i < 16; i++ {
			mod += int(e[i])
		}
		switch mod % 3 {
		case 0:
			v := sha256.Sum256(e)
			k = v[:]
		case 1:
			v := sha512.Sum384(e)
			k = v[:]
		case 2:
			v := sha512.Sum512(e)
			k = v[:]
		}

		if i >= 64 && int(e[len(e)-1]) <= i-32 {
			break
		}
	}
	return k[:32]
}

// cryptFilters validates the crypt filter setup and reports which of the
// stream and string filters are Identity.
func cryptFilters(v int64, encrypt dict) (stmIdentity, strIdentity, ok bool) {
	switch v {
	case 1, 2:
		return false, false, true
	case 4, 5:
	default:
		return false, false, false
	}

	cf, _ := encrypt["CF"].(dict)
	stmf, _ := encrypt["StmF"].(name)
	strf, _ := encrypt["StrF"].(name)
	if stmf == "" {
		stmf = "Identity"
	}
	if strf == "" {
		strf = "Identity"
	}
	want := name("AESV2")
	length := int64(16)
	if v == 5 {
		want, length = "AESV3", 32
	}
	check := func(f name) bool {
		if f == "Identity" {
			return true
		}
		param, _ := cf[f].(dict)
		if param == nil {
			return false
		}
		if ev := param["AuthEvent"]; ev != nil && ev != name("DocOpen") {
			return false
		}
		if l, ok := param["Length"].(int64); ok && l != length && l != length*8 {
			return false
		}
		return param["CFM"] == want
	}
	if !check(stmf) || !check(strf) {
		return false, false, false
	}
	return stmf == "Identity", strf == "Identity", true
}

func (s *security) aes() bool { return s.v == 4 || s.v == 5 }

func (s *security) cryptKey(ptr objptr) []byte {
	if s.v == 5 {
		return s.key
	}
	h := md5.New()
	h.Write(s.key)
	h.Write([]byte{byte(ptr.id), byte(ptr.id >> 8), byte(ptr.id >> 16), byte(ptr.gen), byte(ptr.gen >> 8)})
	if s.v == 4 {
		h.Write([]byte("sAlT"))
	}
	key := h.Sum(nil)
	if n := len(s.key) + 5; n < len(key) {
		key = key[:n]
	}
	return key
}

// decrypt decrypts a string belonging to the object ptr.
func (s *security) decrypt(ptr objptr, data []byte) ([]byte, error) {
	if s == nil || s.identityStr || ptr == s.encryptID {
		return data, nil
	}
	return s.crypt(ptr, data)
}

// decryptStream decrypts the raw data of the stream object ptr.
func (s *security) decryptStream(ptr objptr, data []byte) ([]byte, error) {
	if s == nil || s.identityStm {
		return data, nil
	}
	return s.crypt(ptr, data)
}

func (s *security) crypt(ptr objptr, data []byte) ([]byte, error) {
	key := s.cryptKey(ptr)
	if !s.aes() {
		c, err := rc4.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("bad RC4 key: %w", err)
		}
		out := make([]byte, len(data))
		c.XORKeyStream(out, data)
		return out, nil
	}

	if len(data) == 0 {
		return data, nil
	}
	if len(data) < aes.BlockSize || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("malformed PDF: AES data length %d", len(data))
	}
	cb, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("bad AES key: %w", err)
	}
	iv, body := data[:aes.BlockSize], data[aes.BlockSize:]
	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(cb, iv).CryptBlocks(out, body)
	// Strip PKCS#5 padding when it is well formed.
	if n := len(out); n > 0 {
		if pad := int(out[n-1]); pad > 0 && pad <= aes.BlockSize && pad <= n {
			out = out[:n-pad]
		}
	}
	return out, nil
}
