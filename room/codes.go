// room/codes.go
package room

import (
	"math/rand"
)

const (
	DefaultCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultCodeLength   = 6
)

// CodeGenerator 按固定字母表随机生成房间码。
// 碰撞检测由注册表负责，这里只负责采样。
type CodeGenerator struct {
	alphabet string
	length   int
}

func NewCodeGenerator(alphabet string, length int) *CodeGenerator {
	if alphabet == "" {
		alphabet = DefaultCodeAlphabet
	}
	if length <= 0 {
		length = DefaultCodeLength
	}
	return &CodeGenerator{alphabet: alphabet, length: length}
}

func (g *CodeGenerator) Next() string {
	code := make([]byte, g.length)
	for i := range code {
		code[i] = g.alphabet[rand.Intn(len(g.alphabet))]
	}
	return string(code)
}
