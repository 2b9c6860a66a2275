package pdftest

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
)

// FileID is the first element of the /ID array of encrypted documents.
const FileID = "pdftest-file-id!"

// permissions is the /P value of every Security dictionary.
var permissions int32 = -4

var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// Security encrypts a document with the standard security handler. Object
// bodies are written by the caller, so strings and stream data that must be
// encrypted are produced with String and Stream. Objects stored with
// Compress keep plain strings; their object stream is encrypted as a whole.
type Security struct {
	// Revision selects the handler: 3 is 128-bit RC4, 4 is AESV2 and 6 is
	// AESV3.
	Revision int
	// UserPassword opens the document.
	UserPassword string

	key []byte
}

// NewSecurity returns the handler for revision rev and user password pw.
func NewSecurity(rev int, pw string) *Security {
	switch rev {
	case 3, 4, 6:
	default:
		panic(fmt.Sprintf("pdftest: unsupported security revision %d", rev))
	}
	return &Security{Revision: rev, UserPassword: pw}
}

var (
	ownerHash = bytes.Repeat([]byte{0x42}, 32)
	r6Key     = bytes.Repeat([]byte{0x5a, 0xa5}, 16)
	r6VSalt   = []byte("validsal")
	r6KSalt   = []byte("keysalt!")
)

func (s *Security) fileKey() []byte {
	if s.key != nil {
		return s.key
	}
	if s.Revision == 6 {
		s.key = r6Key
		return s.key
	}
	h := md5.New()
	h.Write(padPassword(s.UserPassword))
	h.Write(ownerHash)
	binary.Write(h, binary.LittleEndian, permissions)
	h.Write([]byte(FileID))
	key := h.Sum(nil)
	for i := 0; i < 50; i++ {
		sum := md5.Sum(key[:16])
		key = sum[:]
	}
	s.key = key[:16]
	return s.key
}

func padPassword(pw string) []byte {
	p := []byte(pw)
	if len(p) >= 32 {
		return p[:32]
	}
	return append(p, passwordPad[:32-len(p)]...)
}

func (s *Security) objectKey(id int) []byte {
	key := s.fileKey()
	if s.Revision == 6 {
		return key
	}
	h := md5.New()
	h.Write(key)
	h.Write([]byte{byte(id), byte(id >> 8), byte(id >> 16), 0, 0})
	if s.Revision == 4 {
		h.Write([]byte("sAlT"))
	}
	return h.Sum(nil)[:min(16, len(key)+5)]
}

// Seal encrypts data belonging to object id.
func (s *Security) Seal(id int, data []byte) []byte {
	key := s.objectKey(id)
	if s.Revision == 3 {
		c, err := rc4.NewCipher(key)
		if err != nil {
			panic(err)
		}
		out := make([]byte, len(data))
		c.XORKeyStream(out, data)
		return out
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	pad := aes.BlockSize - len(data)%aes.BlockSize
	plain := append(bytes.Clone(data), bytes.Repeat([]byte{byte(pad)}, pad)...)
	iv := md5.Sum([]byte(fmt.Sprint(id)))
	out := make([]byte, aes.BlockSize+len(plain))
	copy(out, iv[:])
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(out[aes.BlockSize:], plain)
	return out
}

// String returns str encrypted for object id, written as a hex string.
func (s *Security) String(id int, str string) string {
	return fmt.Sprintf("<%X>", s.Seal(id, []byte(str)))
}

// Stream returns the body of stream object id holding data encrypted.
func (s *Security) Stream(id int, dict string, data []byte) string {
	return Stream(dict, s.Seal(id, data))
}

// dict renders the /Encrypt dictionary.
func (s *Security) dict() string {
	switch s.Revision {
	case 3:
		return fmt.Sprintf("<< /Filter /Standard /V 2 /R 3 /Length 128 /P %d /O <%X> /U <%X> >>",
			permissions, ownerHash, s.userHash())
	case 4:
		return fmt.Sprintf("<< /Filter /Standard /V 4 /R 4 /Length 128 /P %d /O <%X> /U <%X>"+
			" /CF << /StdCF << /CFM /AESV2 /Length 16 /AuthEvent /DocOpen >> >> /StmF /StdCF /StrF /StdCF >>",
			permissions, ownerHash, s.userHash())
	}

	pw := []byte(s.UserPassword)
	u := append(append(hashR6(pw, r6VSalt), r6VSalt...), r6KSalt...)
	block, err := aes.NewCipher(hashR6(pw, r6KSalt))
	if err != nil {
		panic(err)
	}
	var iv [aes.BlockSize]byte
	ue := make([]byte, 32)
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(ue, s.fileKey())

	perms := make([]byte, 16)
	binary.LittleEndian.PutUint32(perms, uint32(permissions))
	copy(perms[4:], "\xff\xff\xff\xffTadb")
	block, err = aes.NewCipher(s.fileKey())
	if err != nil {
		panic(err)
	}
	block.Encrypt(perms, perms)

	return fmt.Sprintf("<< /Filter /Standard /V 5 /R 6 /Length 256 /P %d /O <%X> /U <%X> /OE <%X> /UE <%X> /Perms <%X>"+
		" /CF << /StdCF << /CFM /AESV3 /Length 32 /AuthEvent /DocOpen >> >> /StmF /StdCF /StrF /StdCF >>",
		permissions, bytes.Repeat([]byte{0x42}, 48), u, ownerHash, ue, perms)
}

// userHash computes /U for revisions 3 and 4.
func (s *Security) userHash() []byte {
	key := s.fileKey()
	h := md5.New()
	h.Write(passwordPad)
	h.Write([]byte(FileID))
	w := h.Sum(nil)
	for i := 0; i < 20; i++ {
		k := bytes.Clone(key)
		for j := range k {
			k[j] ^= byte(i)
		}
		c, err := rc4.NewCipher(k)
		if err != nil {
			panic(err)
		}
		c.XORKeyStream(w, w)
	}
	return append(w, bytes.Repeat([]byte{0x24}, 16)...)
}

// hashR6 is Algorithm 2.B of ISO 32000-2 for the user password.
func hashR6(p, salt []byte) []byte {
	h := sha256.New()
	h.Write(p)
	h.Write(salt)
	k := h.Sum(nil)

	for i := 1; ; i++ {
		k1 := bytes.Repeat(append(bytes.Clone(p), k...), 64)
		block, err := aes.NewCipher(k[:16])
		if err != nil {
			panic(err)
		}
		e := make([]byte, len(k1))
		cipher.NewCBCEncrypter(block, k[16:32]).CryptBlocks(e, k1)

		mod := 0
		for _, b := range e[:16] {
			mod += int(b)
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
