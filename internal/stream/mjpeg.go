package stream

import (
	"io"
	"net/http"
)

const boundary = "\r\n--frame\r\nContent-Type: image/jpeg\r\n\r\n"

// MJPEGHandler streams every new frame of latest as a multipart JPEG
// response until the client goes away or latest is closed.
func MJPEGHandler(latest *Latest) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		w.Header().Add("Cache-Control", "no-cache")
		flusher, _ := w.(http.Flusher)

		var seq uint64
		for {
			frame, next, err := latest.Wait(r.Context(), seq)
			if err != nil {
				return
			}
			seq = next

			n, err := io.WriteString(w, boundary)
			if err != nil || n != len(boundary) {
				return
			}

			_, err = w.Write(frame.Data)
			if err != nil {
				return
			}

			n, err = io.WriteString(w, "\r\n")
			if err != nil || n != 2 {
				return
			}

			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
