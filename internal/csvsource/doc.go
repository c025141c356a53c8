// Package csvsource parses experiment CSV files into session records.
//
// Files are header-driven. The header must name user_name, subject_name,
// session_date and session_result, in any order; the short forms user,
// subject, date and result are accepted too. Any other column is rejected.
// Every failure wraps csvlab.ErrInvalidRecord and carries the file name and
// line number.
//
//	user_name, subject_name, session_date, session_result
//	user1, subject1, 2017-09-01, 1
package csvsource
