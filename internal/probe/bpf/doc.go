// Package bpf holds the eBPF C source compiled by bpf2go into the
// generated Sched* Go bindings consumed by probe_linux.go.
package bpf

//go:generate go run github.com/cilium/ebpf/cmd/bpf2go -target amd64,arm64 -cc clang -type sched_event -type sched_config Sched sched.c -- -I. -g -O2 -Wall -Wextra -Wno-compare-distinct-pointer-types
