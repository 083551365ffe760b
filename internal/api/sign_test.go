package api

import "testing"

func TestSignQuery(t *testing.T) {
	got := signQuery("symbol=BTCUSD&timestamp=1700000000000", "test-secret")
	want := "symbol=BTCUSD&timestamp=1700000000000" +
		"&signature=b8d1096afe0ea12b65e77ce70c4b466e6025e7f0c6b76aa130986d908844f8d7"
	if got != want {
		t.Errorf("signQuery() = %q, want %q", got, want)
	}
}

func TestSignQuery_EmptyQuery(t *testing.T) {
	got := signQuery("", "test-secret")
	if len(got) != len("signature=")+64 {
		t.Errorf("signQuery(\"\") = %q, want bare signature parameter", got)
	}
}
