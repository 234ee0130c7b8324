// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/miekg/dns"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/namspill"
	. "github.com/thediveo/success"
)

type result struct {
	fqdn string
	err  error
}

// resolve reverse-resolves a single address using the specified pool and
// returns the outcome.
func resolve(ctx context.Context, pool interface {
	ResolveAddr(context.Context, string, func(string, error))
}, addr string) result {
	GinkgoHelper()
	ch := make(chan result, 1)
	pool.ResolveAddr(ctx, addr, func(fqdn string, err error) {
		ch <- result{fqdn: fqdn, err: err}
	})
	var r result
	Eventually(ch).Within(5 * time.Second).Should(Receive(&r))
	return r
}

var _ = Describe("DNS client connection pool", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
			Expect(Tasks()).To(BeUniformlyNamespaced())
		})
	})

	It("runs a goroutine-limited set of DNS tasks", NodeTimeout(30*time.Second), func(ctx context.Context) {
		const poolsize = 3

		dnsclnt := dns.Client{}
		// We're never going to contact this DNS "server", we just need just
		// some address so we can allocate some connections.
		pool := Successful(New(ctx, poolsize, &dnsclnt, "127.0.0.1:53"))

		dnsconns := map[*dns.Conn]int{}
		var mu sync.Mutex
		taskfn := func(conn *dns.Conn) {
			mu.Lock()
			defer mu.Unlock()
			count := dnsconns[conn]
			dnsconns[conn] = count + 1
			time.Sleep(100 * time.Millisecond)
		}

		numtasks := poolsize * 2
		for i := 0; i < numtasks; i++ {
			pool.Submit(taskfn)
		}

		pool.StopWait()

		total := 0
		for _, count := range dnsconns {
			total += count
		}
		Expect(total).To(Equal(numtasks), "number of submitted and executed tasks mismatch")
		Expect(len(dnsconns)).To(BeNumerically("<=", poolsize))
	})

	It("reverse-resolves addresses", NodeTimeout(30*time.Second), func(ctx context.Context) {
		addr := startDNSServer()
		dnsclnt := dns.Client{Net: "udp"}
		pool := Successful(New(ctx, 2, &dnsclnt, addr, WithTimeout(time.Second)))
		defer pool.StopWait()

		By("resolving an address with a PTR record")
		r := resolve(ctx, pool, "192.168.1.5")
		Expect(r.err).NotTo(HaveOccurred())
		Expect(r.fqdn).To(Equal("test01.example.com"))

		By("not finding an address without any entry")
		r = resolve(ctx, pool, "192.168.1.1")
		Expect(r.err).To(MatchError(ErrNoEntry))
		Expect(r.fqdn).To(BeEmpty())

		By("not finding an address without PTR data")
		r = resolve(ctx, pool, "192.168.1.6")
		Expect(r.err).To(MatchError(ErrNoEntry))

		By("failing on server failure")
		r = resolve(ctx, pool, "192.168.1.7")
		Expect(r.err).To(HaveOccurred())
		Expect(errors.Is(r.err, ErrNoEntry)).To(BeFalse())
		var rerr *ResolveError
		Expect(errors.As(r.err, &rerr)).To(BeTrue())
		Expect(rerr.Addr).To(Equal("192.168.1.7"))
		Expect(rerr.Error()).To(ContainSubstring("SERVFAIL"))
	})

	It("rejects malformed addresses", NodeTimeout(30*time.Second), func(ctx context.Context) {
		addr := startDNSServer()
		dnsclnt := dns.Client{Net: "udp"}
		pool := Successful(New(ctx, 1, &dnsclnt, addr))
		defer pool.StopWait()

		r := resolve(ctx, pool, "192.168.1.666")
		var rerr *ResolveError
		Expect(errors.As(r.err, &rerr)).To(BeTrue())
	})

	It("reports resolution failures", NodeTimeout(30*time.Second), func(ctx context.Context) {
		dnsclnt := dns.Client{Net: "udp"}
		pool := Successful(New(ctx, 1, &dnsclnt, "127.0.0.1:1", WithTimeout(500*time.Millisecond)))
		defer pool.StopWait()

		r := resolve(ctx, pool, "192.168.1.5")
		Expect(r.err).To(HaveOccurred())
		Expect(errors.Is(r.err, ErrNoEntry)).To(BeFalse())
	})

	It("calls back on cancelled contexts", NodeTimeout(30*time.Second), func(ctx context.Context) {
		addr := startDNSServer()
		dnsclnt := dns.Client{Net: "udp"}
		pool := Successful(New(ctx, 1, &dnsclnt, addr))
		defer pool.StopWait()

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		r := resolve(cctx, pool, "192.168.1.5")
		Expect(r.err).To(MatchError(context.Canceled))
	})

})

var _ = Describe("system resolver pool", func() {

	It("calls back on cancelled contexts", func() {
		pool := NewSystem(1, 0)
		defer pool.StopWait()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := resolve(ctx, pool, "127.0.0.1")
		Expect(r.err).To(MatchError(context.Canceled))
		Expect(errors.Is(r.err, ErrNoEntry)).To(BeFalse())
	})

})

var _ = Describe("resolver address", func() {

	It("uses an explicit server", func() {
		Expect(ResolverAddress("10.0.0.53")).To(Equal("10.0.0.53:53"))
		Expect(ResolverAddress("10.0.0.53:5353")).To(Equal("10.0.0.53:5353"))
		Expect(ResolverAddress("::1")).To(Equal("[::1]:53"))
	})

	It("falls back to resolv.conf", func() {
		path := filepath.Join(GinkgoT().TempDir(), "resolv.conf")
		Expect(os.WriteFile(path, []byte("search example.com\nnameserver 10.1.2.3\nnameserver 10.1.2.4\n"), 0644)).To(Succeed())
		old := ResolvConfPath
		ResolvConfPath = path
		DeferCleanup(func() { ResolvConfPath = old })

		Expect(ResolverAddress("")).To(Equal("10.1.2.3:53"))
	})

	It("reports missing nameservers", func() {
		path := filepath.Join(GinkgoT().TempDir(), "resolv.conf")
		Expect(os.WriteFile(path, []byte("search example.com\n"), 0644)).To(Succeed())
		old := ResolvConfPath
		ResolvConfPath = path
		DeferCleanup(func() { ResolvConfPath = old })

		Expect(ResolverAddress("")).Error().To(MatchError(ContainSubstring("no nameserver")))
	})

})
