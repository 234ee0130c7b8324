/*
Package inventory classifies live hosts into groups and assembles them into an
Ansible dynamic inventory [Document].

Hosts get classified twice, independently of each other:

  - into the built-in "test" and "prod" groups: a host whose short name contains
    any of the test substrings is a test host, and a prod host otherwise.
  - into any number of additional groups, as defined by [GroupRules]: a host
    joins every group with at least one substring contained in its short name.

All matching is plain, case-sensitive substring containment on the short host
names, so "devops" matches "dev". Groups list their hosts in the order of the
hosts passed in, which is the ascending address order of a sweep.

Short host names are the keys of an inventory, so [Build] drops hosts whose
short name repeats the name of a host with a lower address.
*/
package inventory
