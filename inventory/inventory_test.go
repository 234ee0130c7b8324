// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/siemens/subdig/types"
	"gopkg.in/yaml.v3"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var scenario = []types.HostRecord{
	{FQDN: "test01.example.com", Hostname: "test01", IP: "192.168.1.5"},
	{FQDN: "webprod.example.com", Hostname: "webprod", IP: "192.168.1.9"},
}

const scenarioJSON = `{
    "all": {
        "hosts": [
            "test01",
            "webprod"
        ]
    },
    "_meta": {
        "hostvars": {
            "test01": {
                "fqdn": "test01.example.com",
                "ip": "192.168.1.5"
            },
            "webprod": {
                "fqdn": "webprod.example.com",
                "ip": "192.168.1.9"
            }
        }
    },
    "test": {
        "hosts": [
            "test01"
        ]
    },
    "prod": {
        "hosts": [
            "webprod"
        ]
    }
}
`

// brokenWriter fails all writes.
type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

var _ = Describe("inventory documents", func() {

	It("reports write failures", func() {
		doc, _ := Successful2R(Build(scenario, []string{"test"}, defaultRules))
		Expect(doc.WriteYAML(brokenWriter{})).To(MatchError(ContainSubstring("disk full")))
		Expect(doc.WriteJSON(brokenWriter{})).To(MatchError(ContainSubstring("disk full")))
		Expect(doc.WriteHostJSON(brokenWriter{}, "test01")).To(MatchError(ContainSubstring("disk full")))
	})

	It("renders the two host scenario", func() {
		doc, dropped := Successful2R(Build(scenario, []string{"test", "dev"}, nil))
		Expect(dropped).To(BeEmpty())
		Expect(json.Marshal(doc)).To(MatchJSON(`{
			"all":{"hosts":["test01","webprod"]},
			"_meta":{"hostvars":{
				"test01":{"fqdn":"test01.example.com","ip":"192.168.1.5"},
				"webprod":{"fqdn":"webprod.example.com","ip":"192.168.1.9"}}},
			"test":{"hosts":["test01"]},
			"prod":{"hosts":["webprod"]}}`))

		var out bytes.Buffer
		Expect(doc.WriteJSON(&out)).To(Succeed())
		Expect(out.String()).To(Equal(scenarioJSON))
	})

	It("orders the top-level keys", func() {
		doc := Successful(Assemble(scenario,
			ClassifyTestProd(scenario, []string{"test"}),
			ClassifyByRules(scenario, GroupRules{
				{Name: "zzz", Substrings: []string{"web"}},
				{Name: "aaa", Substrings: []string{"nope"}},
			})))
		raw := string(Successful(json.Marshal(doc)))
		order := []string{`"all"`, `"_meta"`, `"test"`, `"prod"`, `"zzz"`, `"aaa"`}
		last := -1
		for _, key := range order {
			idx := strings.Index(raw, key+":")
			Expect(idx).To(BeNumerically(">", last), "key %s out of order in %s", key, raw)
			last = idx
		}
		Expect(raw).To(ContainSubstring(`"aaa":{"hosts":[]}`))
	})

	It("renders an empty inventory", func() {
		doc := Successful(Assemble(nil, ClassifyTestProd(nil, nil), ClassifyByRules(nil, defaultRules)))
		Expect(json.Marshal(doc)).To(MatchJSON(`{
			"all":{"hosts":[]},
			"_meta":{"hostvars":{}},
			"test":{"hosts":[]},
			"prod":{"hosts":[]},
			"group1":{"hosts":[]},
			"group2":{"hosts":[]}}`))
	})

	It("keeps hostvars and all hosts in sync", func() {
		hs := hosts("devdb", "webprod", "appsrv")
		doc, _ := Successful2R(Build(hs, []string{"dev"}, defaultRules))
		Expect(doc.Hosts()).To(Equal([]string{"devdb", "webprod", "appsrv"}))
		for _, host := range hs {
			vars, ok := doc.HostVarsFor(host.Hostname)
			Expect(ok).To(BeTrue())
			Expect(vars).To(Equal(HostVars{FQDN: host.FQDN, IP: host.IP}))
		}
		_, ok := doc.HostVarsFor("nonexisting")
		Expect(ok).To(BeFalse())
	})

	It("drops duplicate host names", func() {
		hs := []types.HostRecord{
			{FQDN: "web.a.example.com", Hostname: "web", IP: "192.168.1.3"},
			{FQDN: "web.b.example.com", Hostname: "web", IP: "192.168.1.7"},
		}
		doc, dropped := Successful2R(Build(hs, nil, nil))
		Expect(dropped).To(ConsistOf(HaveField("IP", "192.168.1.7")))
		Expect(doc.Hosts()).To(Equal([]string{"web"}))
		Expect(doc.Groups()).To(ContainElement(NamedGroup{Name: "prod", Hosts: []string{"web"}}))
		vars, _ := doc.HostVarsFor("web")
		Expect(vars.IP).To(Equal("192.168.1.3"))
	})

	DescribeTable("rejects shadowing groups",
		func(name string, target error) {
			_, err := Assemble(scenario, BaseGroups{}, []NamedGroup{{Name: name}})
			Expect(err).To(MatchError(target))
		},
		Entry("test", "test", ErrReservedGroup),
		Entry("prod", "prod", ErrReservedGroup),
		Entry("all", "all", ErrReservedGroup),
		Entry("_meta", "_meta", ErrReservedGroup),
	)

	It("rejects duplicate and empty group names", func() {
		_, err := Assemble(nil, BaseGroups{}, []NamedGroup{{Name: "a"}, {Name: "a"}})
		Expect(err).To(MatchError(ErrDuplicateGroup))
		Expect(CheckGroupName("")).To(HaveOccurred())
		_, _, err = Build(nil, nil, GroupRules{{Name: "prod"}})
		Expect(err).To(MatchError(ErrReservedGroup))
	})

	It("lists its groups in order", func() {
		doc, _ := Successful2R(Build(scenario, []string{"test"}, defaultRules))
		Expect(doc.Groups()).To(HaveExactElements(
			NamedGroup{Name: "test", Hosts: []string{"test01"}},
			NamedGroup{Name: "prod", Hosts: []string{"webprod"}},
			NamedGroup{Name: "group1", Hosts: []string{}},
			NamedGroup{Name: "group2", Hosts: []string{}},
		))
	})

	It("answers host queries", func() {
		doc, _ := Successful2R(Build(scenario, nil, nil))
		var out bytes.Buffer
		Expect(doc.WriteHostJSON(&out, "webprod")).To(Succeed())
		Expect(out.String()).To(Equal("{\n    \"fqdn\": \"webprod.example.com\",\n    \"ip\": \"192.168.1.9\"\n}\n"))
		out.Reset()
		Expect(doc.WriteHostJSON(&out, "nonexisting")).To(Succeed())
		Expect(out.String()).To(Equal("{}\n"))
	})

	It("renders a YAML inventory", func() {
		doc, _ := Successful2R(Build(scenario, []string{"test"}, GroupRules{
			{Name: "web", Substrings: []string{"web"}},
			{Name: "empty", Substrings: []string{"nope"}},
		}))
		var out bytes.Buffer
		Expect(doc.WriteYAML(&out)).To(Succeed())

		var inv struct {
			All struct {
				Hosts    map[string]map[string]string `yaml:"hosts"`
				Children map[string]struct {
					Hosts map[string]interface{} `yaml:"hosts"`
				} `yaml:"children"`
			} `yaml:"all"`
		}
		Expect(yaml.Unmarshal(out.Bytes(), &inv)).To(Succeed())
		Expect(inv.All.Hosts).To(Equal(map[string]map[string]string{
			"test01":  {"ansible_host": "192.168.1.5", "fqdn": "test01.example.com"},
			"webprod": {"ansible_host": "192.168.1.9", "fqdn": "webprod.example.com"},
		}))
		Expect(inv.All.Children).To(HaveLen(4))
		Expect(inv.All.Children["test"].Hosts).To(HaveKey("test01"))
		Expect(inv.All.Children["prod"].Hosts).To(HaveKey("webprod"))
		Expect(inv.All.Children["web"].Hosts).To(HaveKey("webprod"))
		Expect(inv.All.Children["empty"].Hosts).To(BeEmpty())

		By("keeping the group order")
		s := out.String()
		Expect(strings.Index(s, "  test:")).To(BeNumerically("<", strings.Index(s, "  prod:")))
		Expect(strings.Index(s, "  prod:")).To(BeNumerically("<", strings.Index(s, "  web:")))
		Expect(strings.Index(s, "  web:")).To(BeNumerically("<", strings.Index(s, "  empty:")))
	})

})
