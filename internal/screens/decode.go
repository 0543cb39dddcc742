package screens

import (
	"encoding/json"
	"io"
	"net/http"
)

const maxBodySize = 1 << 20

func decodeJSON(r *http.Request, dest any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(dest)
}
