/*
Package types defines subdig's information model. Which is rather simple and
revolves around [HostRecord], the live host found on a subnet sweep, and
[Candidate], the progress information about a single candidate address while it
undergoes reverse resolution and reachability probing.

A candidate's reachability is tracked as its [Quality], while its final
disposition is its [Outcome]: only [Found] candidates turn into host records.

# Host Names

A host record carries the FQDN as reverse-resolved, as well as the short host
name, which is the FQDN's first label. Group classification works solely on the
short host name.
*/
package types
