package ledger

const sampleLedger = `BOARD OF TECHNICAL EXAMINATION
RESULT LEDGER - DIPLOMA EXAMINATION Nov/Dec-2023
Institute : 101 - [ GOVT POLYTECHNIC BANGALORE ]
Programme : CE - CIVIL ENGINEERING
Result Date : 12/01/2024
Page No : 1
1 20CE53I STUDENT NAME [ S(D)/o : FATHER NAME ]
5 20CE53I : TRANSPORTATION ENGINEERING 172 / 04 / 50 F 0 F
20CE54I : STRUCTURAL DESIGN225 / 25 / 70P24 B+
Semester I II III IV V VI
Credit Applied 20 20
SGPA (Atempts) 7.11 (7) 5.64 (6)
CGPA : Credit(s) Pending
Results : FAIL
Continue...
2 20CE12 OTHER STUDENT [ GUARDIAN ]
20CE31I : SURVEYING 20 / AB / 30 P 4 C
this line is noise
CGPA 6.85
Results
: FIRST CLASS
`
