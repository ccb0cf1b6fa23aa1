package stdlib

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/sambeau/vaso/pkg/vaso/value"
)

var hashFunctions = map[string]builtin{
	"password": hashPassword,
	"check":    hashCheck,
}

func hashPassword(l *Library, args []value.Value) value.Value {
	text, ok := strArg(args, 0)
	if !ok {
		return argError("Hash.password", "(Str)")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return value.NewError("Hash Error: " + err.Error())
	}
	return value.Str{Value: string(hash)}
}

func hashCheck(l *Library, args []value.Value) value.Value {
	hash, hok := strArg(args, 0)
	text, tok := strArg(args, 1)
	if !hok || !tok {
		return argError("Hash.check", "(Str hash, Str text)")
	}
	return value.FromBool(bcrypt.CompareHashAndPassword([]byte(hash), []byte(text)) == nil)
}
